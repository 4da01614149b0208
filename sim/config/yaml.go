package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads and parses a YAML configuration file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return DecodeYAML(bytes.NewReader(data))
}

// DecodeYAML parses a YAML configuration from r with strict field checking.
func DecodeYAML(r io.Reader) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty config", ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: parsing config: %w", ErrInvalidInput, err)
	}
	return &cfg, nil
}

// EncodeYAML writes cfg to w in the form DecodeYAML accepts.
func EncodeYAML(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}
