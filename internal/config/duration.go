package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a YAML-friendly duration: it accepts either a Go
// duration string ("15m", "900s") or a bare number, interpreted as
// seconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid duration node kind %v", value.Kind)
	}

	switch value.Tag {
	case "!!str":
		s := strings.TrimSpace(value.Value)
		if s == "" {
			d.Duration = 0
			return nil
		}
		dd, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		d.Duration = dd
		return nil
	case "!!int":
		secs, err := strconv.ParseInt(strings.TrimSpace(value.Value), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid duration seconds %q: %w", value.Value, err)
		}
		d.Duration = time.Duration(secs) * time.Second
		return nil
	case "!!float":
		f, err := strconv.ParseFloat(strings.TrimSpace(value.Value), 64)
		if err != nil {
			return fmt.Errorf("invalid duration seconds %q: %w", value.Value, err)
		}
		d.Duration = time.Duration(f * float64(time.Second))
		return nil
	}
	return fmt.Errorf("invalid duration value %q", value.Value)
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}
