package scoring

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfigFile reads a YAML scoring policy overlay, for example:
//
//	thresholds:
//	  medium: 25
//	rule_configs:
//	  no-trips:
//	    enabled: false
//	rule_weights:
//	  missing-email: 20
func LoadConfigFile(path string) (PartialConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PartialConfig{}, fmt.Errorf("failed to read scoring config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML (or JSON) scoring policy overlay. Unknown keys are rejected.
func ParseConfig(data []byte) (PartialConfig, error) {
	var partial PartialConfig

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&partial); err != nil && !errors.Is(err, io.EOF) {
		return PartialConfig{}, fmt.Errorf("failed to parse scoring config: %w", err)
	}

	return partial, nil
}

// ApplyConfigFile loads path and merges it into config
func ApplyConfigFile(config *Configuration, path string) (*Config, error) {
	partial, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	return config.Update(partial)
}

// MarshalConfig renders a configuration snapshot as YAML
func MarshalConfig(config *Config) ([]byte, error) {
	return yaml.Marshal(config)
}
