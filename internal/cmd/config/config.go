// Package config provides CLI commands for managing airlift configuration.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	appconfig "github.com/Iron-Ham/airlift/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Supported config file formats
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// ValidFormats returns the formats accepted by --format
func ValidFormats() []string {
	return []string{FormatYAML, FormatTOML}
}

var (
	showFormat string
	initFormat string
	initForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify airlift configuration",
	Long: `View or modify airlift configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  airlift config set simulation.capacity 4
  airlift config set timing.max_flight_us 5000
  airlift config set logging.enabled false

Valid keys:
  simulation.passengers     - Passengers to transport (1-100)
  simulation.capacity       - Seats per flight (1-100)
  simulation.min_passengers - Departure load when nobody is queued (1-capacity)
  simulation.max_flights    - Finish after this many flights (0 = unlimited)
  simulation.seed           - Travel time seed (0 = clock)
  timing.min_flight_us      - Shortest leg in microseconds
  timing.max_flight_us      - Random spread added to each leg
  timing.max_airport_us     - Longest trip to the airport
  logging.enabled           - Write the debug log (true/false)
  logging.level             - Options: debug, info, warn, error
  logging.dir               - Directory for debug.log (empty = stderr)
  statelog.path             - State log file (empty disables it)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long: `Create a default config file at ~/.config/airlift/config.yaml with all
available options. Use --format toml to write config.toml instead.`,
	RunE: runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	configShowCmd.Flags().StringVarP(&showFormat, "format", "f", FormatYAML, "output format: yaml or toml")
	configInitCmd.Flags().StringVarP(&initFormat, "format", "f", FormatYAML, "file format: yaml or toml")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

// Register adds all config-related commands to the given parent command.
func Register(parent *cobra.Command) {
	parent.AddCommand(configCmd)
}

// keyTypes lists every settable key and how its value is parsed
var keyTypes = map[string]string{
	"simulation.passengers":     "int",
	"simulation.capacity":       "int",
	"simulation.min_passengers": "int",
	"simulation.max_flights":    "int",
	"simulation.seed":           "uint",
	"timing.min_flight_us":      "int",
	"timing.max_flight_us":      "int",
	"timing.max_airport_us":     "int",
	"logging.enabled":           "bool",
	"logging.level":             "string",
	"logging.dir":               "string",
	"statelog.path":             "string",
}

// ValidKeys returns the settable keys in sorted order
func ValidKeys() []string {
	keys := make([]string, 0, len(keyTypes))
	for k := range keyTypes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Encode writes cfg to w in the given format
func Encode(w io.Writer, cfg *appconfig.Config, format string) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(cfg)
	default:
		return fmt.Errorf("unknown format %q (valid: %s)", format, strings.Join(ValidFormats(), ", "))
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	cfg, err := appconfig.Load()
	if err != nil {
		fmt.Fprintf(out, "# Invalid configuration, showing defaults:\n# %s\n",
			strings.ReplaceAll(strings.TrimSpace(err.Error()), "\n", "\n# "))
		cfg = appconfig.Default()
	}
	return Encode(out, cfg, showFormat)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	keyType, ok := keyTypes[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'airlift config set --help' to see valid keys", key)
	}

	typedValue, err := parseValue(key, keyType, value)
	if err != nil {
		return err
	}

	// Validate against the rest of the configuration before writing
	viper.Set(key, typedValue)
	if _, err := appconfig.Load(); err != nil {
		return err
	}

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = appconfig.ConfigFile()
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}

func parseValue(key, keyType, value string) (any, error) {
	switch keyType {
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return b, nil
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		return n, nil
	case "uint":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected non-negative integer", key)
		}
		return n, nil
	default:
		return value, nil
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if !slices.Contains(ValidFormats(), initFormat) {
		return fmt.Errorf("unknown format %q (valid: %s)", initFormat, strings.Join(ValidFormats(), ", "))
	}

	configDir := appconfig.ConfigDir()
	configFile := filepath.Join(configDir, "config."+initFormat)

	if _, err := os.Stat(configFile); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s\nUse 'airlift config set' to modify values or --force to overwrite", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# Airlift configuration\n")
	buf.WriteString("# Environment variables override these values: AIRLIFT_SIMULATION_CAPACITY=4\n\n")
	if err := Encode(&buf, appconfig.Default(), initFormat); err != nil {
		return err
	}

	if err := os.WriteFile(configFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to size and time the simulation.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", appconfig.ConfigFile())
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(appconfig.ConfigDir(), "config.{yaml,toml}"))
	fmt.Fprintln(out, "  2. $HOME/.config/airlift/config.{yaml,toml}")
	fmt.Fprintln(out, "  3. ./config.{yaml,toml} (current directory)")
	fmt.Fprintln(out, "\nEnvironment variables: AIRLIFT_* (e.g., AIRLIFT_SIMULATION_CAPACITY)")
	return nil
}
