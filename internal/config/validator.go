package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "simulation.capacity")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Upper bounds that keep a run finite and the state log readable.
const (
	maxPassengers = 100
	maxCapacity   = 100
	maxTravelUs   = 10_000_000 // 10s
)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateSimulation()...)
	errors = append(errors, c.validateTiming()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateSimulation validates the SimulationConfig
func (c *Config) validateSimulation() []ValidationError {
	var errors []ValidationError
	s := c.Simulation

	if s.Passengers < 1 || s.Passengers > maxPassengers {
		errors = append(errors, ValidationError{
			Field:   "simulation.passengers",
			Value:   s.Passengers,
			Message: fmt.Sprintf("must be between 1 and %d", maxPassengers),
		})
	}

	if s.Capacity < 1 || s.Capacity > maxCapacity {
		errors = append(errors, ValidationError{
			Field:   "simulation.capacity",
			Value:   s.Capacity,
			Message: fmt.Sprintf("must be between 1 and %d", maxCapacity),
		})
	}

	// Only check the minimum against a sane capacity to avoid a duplicate report
	if s.Capacity >= 1 && (s.MinPassengers < 1 || s.MinPassengers > s.Capacity) {
		errors = append(errors, ValidationError{
			Field:   "simulation.min_passengers",
			Value:   s.MinPassengers,
			Message: fmt.Sprintf("must be between 1 and capacity (%d)", s.Capacity),
		})
	}

	if s.MaxFlights < 0 {
		errors = append(errors, ValidationError{
			Field:   "simulation.max_flights",
			Value:   s.MaxFlights,
			Message: "must be non-negative (0 = unlimited)",
		})
	}

	return errors
}

// validateTiming validates the TimingConfig
func (c *Config) validateTiming() []ValidationError {
	var errors []ValidationError

	fields := []struct {
		name  string
		value int
	}{
		{"timing.min_flight_us", c.Timing.MinFlightUs},
		{"timing.max_flight_us", c.Timing.MaxFlightUs},
		{"timing.max_airport_us", c.Timing.MaxAirportUs},
	}
	for _, f := range fields {
		if f.value < 0 {
			errors = append(errors, ValidationError{
				Field:   f.name,
				Value:   f.value,
				Message: "must be non-negative",
			})
		} else if f.value > maxTravelUs {
			errors = append(errors, ValidationError{
				Field:   f.name,
				Value:   f.value,
				Message: fmt.Sprintf("exceeds maximum of %dus", maxTravelUs),
			})
		}
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
