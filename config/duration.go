package config

import (
	"fmt"
	"time"

	"github.com/hako/durafmt"
)

// Duration is a time.Duration with YAML support for values like "5s" or "1m30s"
type Duration time.Duration

func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}

func (d Duration) IsAboveZero() bool {
	return d > 0
}

func (d Duration) String() string {
	if d == 0 {
		return "0s"
	}

	return durafmt.Parse(time.Duration(d)).String()
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var input string
	if err := unmarshal(&input); err != nil {
		return err
	}

	duration, err := time.ParseDuration(input)
	if err != nil {
		return fmt.Errorf("invalid duration '%s': %w", input, err)
	}

	*d = Duration(duration)

	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler, used by creasty/defaults
func (d *Duration) UnmarshalText(data []byte) error {
	duration, err := time.ParseDuration(string(data))
	if err != nil {
		return fmt.Errorf("invalid duration '%s': %w", string(data), err)
	}

	*d = Duration(duration)

	return nil
}
