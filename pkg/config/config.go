// Package config loads the Simulator's run configuration from YAML,
// substituting ${VAR} environment references before parsing and
// reading durations through a Duration wrapper type.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// SimulationConfig is the YAML schema for a Simulator run: the
// population and reliability parameters the simulator needs, plus
// node_url (the CLI/driver's substrate endpoint) and max_witnesses
// (the generalized witness-count ceiling described on
// orchestrator.Config).
type SimulationConfig struct {
	NodeURL          string    `yaml:"node_url"`
	NumParticipants  int       `yaml:"num_participants"`
	AverageProximity float64   `yaml:"average_proximity"`
	WitnessFloor     int       `yaml:"witness_floor"`
	Runs             int       `yaml:"runs"`
	Reliability      []float64 `yaml:"reliability"`
	LazySchedule     bool      `yaml:"lazy_schedule"`
	MaxWitnesses     int       `yaml:"max_witnesses"`
	Timeout          Duration  `yaml:"timeout"`
}

// Duration wraps time.Duration with YAML marshaling as a Go duration
// string ("120s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads a SimulationConfig from a YAML file, substituting
// ${VAR_NAME} and ${VAR_NAME:-default} references against the process
// environment before parsing.
func Load(path string) (SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SimulationConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded := substituteEnvVars(string(data))

	var cfg SimulationConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return SimulationConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = Duration(120 * time.Second)
	}
	return cfg, nil
}
