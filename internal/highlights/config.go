package highlights

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every ConfigError
var ErrInvalidConfig = errors.New("invalid highlight configuration")

// Config is the caller-supplied budget for a highlight edit. All values are
// in seconds.
type Config struct {
	TargetDuration   float64 `json:"target_duration" yaml:"target_duration"`
	SamplingInterval float64 `json:"sampling_interval" yaml:"sampling_interval"`
	MinClipLength    float64 `json:"min_clip_length" yaml:"min_clip_length"`
	MaxClipLength    float64 `json:"max_clip_length" yaml:"max_clip_length"`
}

// DefaultConfig returns the default budget
func DefaultConfig() Config {
	return Config{
		TargetDuration:   30.0,
		SamplingInterval: 30.0,
		MinClipLength:    2.0,
		MaxClipLength:    6.0,
	}
}

// ConfigError describes a rejected configuration field
type ConfigError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks that every duration is positive and finite and that the
// clip bounds are ordered.
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"target_duration", c.TargetDuration},
		{"sampling_interval", c.SamplingInterval},
		{"min_clip_length", c.MinClipLength},
		{"max_clip_length", c.MaxClipLength},
	}
	for _, f := range fields {
		if !(f.value > 0) || math.IsInf(f.value, 1) {
			return &ConfigError{Field: f.name, Value: f.value, Reason: "must be a positive finite number of seconds"}
		}
	}

	if c.MaxClipLength < c.MinClipLength {
		return &ConfigError{
			Field:  "max_clip_length",
			Value:  c.MaxClipLength,
			Reason: fmt.Sprintf("must not be shorter than min_clip_length %v", c.MinClipLength),
		}
	}

	return nil
}

// ClampClip bounds a suggested clip duration to [MinClipLength, MaxClipLength]
func (c Config) ClampClip(d float64) float64 {
	return math.Min(math.Max(d, c.MinClipLength), c.MaxClipLength)
}
