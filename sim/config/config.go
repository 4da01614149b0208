// Package config describes a bus network run: routes, roads, event rates and
// run options. A Config is read either from YAML or from the line-oriented
// text format, and must pass Validate before it is turned into a network.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidInput marks a configuration that cannot be simulated.
	ErrInvalidInput = errors.New("invalid input")
	// ErrWarning marks a configuration that is suspicious but simulatable.
	// It is only returned when warnings are not ignored.
	ErrWarning = errors.New("input warning")
)

// RouteSpec declares one route. Buses and Capacity may hold several
// values, in which case each is tried in an experiment.
type RouteSpec struct {
	ID       int       `yaml:"id"`
	Stops    []int     `yaml:"stops,flow"`
	Buses    IntValues `yaml:"buses"`
	Capacity IntValues `yaml:"capacity"`
}

// RoadSpec declares the travel rate from one stop to the next.
type RoadSpec struct {
	From int         `yaml:"from"`
	To   int         `yaml:"to"`
	Rate FloatValues `yaml:"rate"`
}

// RateSpec holds the global event rates.
type RateSpec struct {
	Board         FloatValues `yaml:"board"`
	Disembarks    FloatValues `yaml:"disembarks"`
	Departs       FloatValues `yaml:"departs"`
	NewPassengers FloatValues `yaml:"new_passengers"`
}

// named returns the rates with their text-format names, in experiment order.
func (r *RateSpec) named() []namedRate {
	return []namedRate{
		{"board", &r.Board},
		{"disembarks", &r.Disembarks},
		{"departs", &r.Departs},
		{"new passengers", &r.NewPassengers},
	}
}

type namedRate struct {
	name   string
	values *FloatValues
}

// Config is the full description of a run or an experiment.
type Config struct {
	Routes         []RouteSpec `yaml:"routes"`
	Roads          []RoadSpec  `yaml:"roads"`
	Rates          RateSpec    `yaml:"rates"`
	StopTime       *float64    `yaml:"stop_time"`
	IgnoreWarnings bool        `yaml:"ignore_warnings,omitempty"`
	Optimise       bool        `yaml:"optimise,omitempty"`
}

// Experimental reports whether any parameter lists more than one value.
func (c *Config) Experimental() bool {
	for _, r := range c.Routes {
		if len(r.Buses) > 1 || len(r.Capacity) > 1 {
			return true
		}
	}
	for _, r := range c.Roads {
		if len(r.Rate) > 1 {
			return true
		}
	}
	for _, r := range c.Rates.named() {
		if len(*r.values) > 1 {
			return true
		}
	}
	return false
}

// Load reads a configuration file. Files ending in .yaml or .yml are decoded
// as YAML, anything else as the text format.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	defer f.Close()
	return ParseText(f, path)
}
