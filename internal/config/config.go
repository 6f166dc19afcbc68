package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete airlift configuration
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation" yaml:"simulation" toml:"simulation"`
	Timing     TimingConfig     `mapstructure:"timing" yaml:"timing" toml:"timing"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging" toml:"logging"`
	StateLog   StateLogConfig   `mapstructure:"statelog" yaml:"statelog" toml:"statelog"`
}

// SimulationConfig sizes the airlift
type SimulationConfig struct {
	// Passengers is the total number of passengers to transport
	Passengers int `mapstructure:"passengers" yaml:"passengers" toml:"passengers"`
	// Capacity is the most passengers a single flight carries
	Capacity int `mapstructure:"capacity" yaml:"capacity" toml:"capacity"`
	// MinPassengers is the load at which the hostess departs if nobody is
	// waiting at the airport (1 <= min <= capacity)
	MinPassengers int `mapstructure:"min_passengers" yaml:"min_passengers" toml:"min_passengers"`
	// MaxFlights finishes the simulation after that many flights (0 = until
	// every passenger has been transported)
	MaxFlights int `mapstructure:"max_flights" yaml:"max_flights" toml:"max_flights"`
	// Seed for travel times (0 = derive from the clock)
	Seed uint64 `mapstructure:"seed" yaml:"seed" toml:"seed"`
}

// TimingConfig bounds the simulated travel times, in microseconds
type TimingConfig struct {
	// MinFlightUs is the shortest leg the plane flies (default: 100)
	MinFlightUs int `mapstructure:"min_flight_us" yaml:"min_flight_us" toml:"min_flight_us"`
	// MaxFlightUs is the random spread added on top of MinFlightUs
	MaxFlightUs int `mapstructure:"max_flight_us" yaml:"max_flight_us" toml:"max_flight_us"`
	// MaxAirportUs is the longest a passenger takes to reach the airport
	MaxAirportUs int `mapstructure:"max_airport_us" yaml:"max_airport_us" toml:"max_airport_us"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether the JSON debug log is written (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level" toml:"level"`
	// Dir is where debug.log is written; empty means stderr
	Dir string `mapstructure:"dir" yaml:"dir" toml:"dir"`
}

// StateLogConfig controls the state log
type StateLogConfig struct {
	// Path of the state log file; empty disables it
	Path string `mapstructure:"path" yaml:"path" toml:"path"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Passengers:    21,
			Capacity:      10,
			MinPassengers: 5,
			MaxFlights:    0, // Run until everyone is transported
			Seed:          0,
		},
		Timing: TimingConfig{
			MinFlightUs:  100,
			MaxFlightUs:  1000,
			MaxAirportUs: 1000,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Dir:     "",
		},
		StateLog: StateLogConfig{
			Path: "airlift.log",
		},
	}
}

// FlightMin returns the shortest leg as a time.Duration
func (c *TimingConfig) FlightMin() time.Duration {
	return time.Duration(c.MinFlightUs) * time.Microsecond
}

// FlightSpread returns the random part of a leg as a time.Duration
func (c *TimingConfig) FlightSpread() time.Duration {
	return time.Duration(c.MaxFlightUs) * time.Microsecond
}

// AirportSpread returns the longest airport trip as a time.Duration
func (c *TimingConfig) AirportSpread() time.Duration {
	return time.Duration(c.MaxAirportUs) * time.Microsecond
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Simulation defaults
	viper.SetDefault("simulation.passengers", defaults.Simulation.Passengers)
	viper.SetDefault("simulation.capacity", defaults.Simulation.Capacity)
	viper.SetDefault("simulation.min_passengers", defaults.Simulation.MinPassengers)
	viper.SetDefault("simulation.max_flights", defaults.Simulation.MaxFlights)
	viper.SetDefault("simulation.seed", defaults.Simulation.Seed)

	// Timing defaults
	viper.SetDefault("timing.min_flight_us", defaults.Timing.MinFlightUs)
	viper.SetDefault("timing.max_flight_us", defaults.Timing.MaxFlightUs)
	viper.SetDefault("timing.max_airport_us", defaults.Timing.MaxAirportUs)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	// State log defaults
	viper.SetDefault("statelog.path", defaults.StateLog.Path)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "airlift")
	}
	// Fall back to ~/.config/airlift
	home, err := os.UserHomeDir()
	if err != nil {
		return ".airlift"
	}
	return filepath.Join(home, ".config", "airlift")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
