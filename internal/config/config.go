// Package config holds the analysis configuration. A Config is an immutable
// value: the With* methods return a validated copy and never touch the receiver.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidConfig is returned for any configuration that fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Default values, taken from the reference marketing analysis setup.
const (
	DefaultNoiseLevel        = 0.05
	DefaultSeed              = 42
	DefaultPseudonymPrefix   = "CUST_"
	DefaultHashLength        = 16
	DefaultMinConversionRate = 0.01
	DefaultMaxCPA            = 100
)

// Window is the analysis period [Start, End]. End is the reference date for recency.
type Window struct {
	Start time.Time
	End   time.Time
}

// Boundaries are the bucket boundaries per RFM dimension.
// Each list must hold at least two strictly increasing values.
type Boundaries struct {
	Recency   []float64
	Frequency []float64
	Monetary  []float64
}

// Privacy controls the privacy transform applied before RFM computation.
type Privacy struct {
	AnonymizeIDs    bool
	AddNoise        bool
	NoiseLevel      float64 // fraction of the input stddev, >= 0
	Seed            int64   // noise RNG seed
	PseudonymPrefix string
	HashLength      int // hex characters kept from the SHA256 digest, 1..64
}

// Thresholds flag under-performing campaigns in reports.
type Thresholds struct {
	MinConversionRate float64
	MaxCPA            float64
}

// Config is the full analysis configuration passed explicitly into each run.
type Config struct {
	Window      Window
	Boundaries  Boundaries
	Privacy     Privacy
	Thresholds  Thresholds
	MinPurchase float64 // transactions below this amount are excluded from the window
}

// Default returns the default configuration: calendar year 2023,
// recency [30 90 180], frequency [1 3 10], monetary [100 500 2000].
func Default() Config {
	return Config{
		Window: Window{
			Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Boundaries: Boundaries{
			Recency:   []float64{30, 90, 180},
			Frequency: []float64{1, 3, 10},
			Monetary:  []float64{100, 500, 2000},
		},
		Privacy: Privacy{
			AnonymizeIDs:    true,
			AddNoise:        true,
			NoiseLevel:      DefaultNoiseLevel,
			Seed:            DefaultSeed,
			PseudonymPrefix: DefaultPseudonymPrefix,
			HashLength:      DefaultHashLength,
		},
		Thresholds: Thresholds{
			MinConversionRate: DefaultMinConversionRate,
			MaxCPA:            DefaultMaxCPA,
		},
	}
}

// New validates cfg and returns a copy that shares no slices with the input.
func New(cfg Config) (Config, error) {
	out := cfg.clone()
	if err := out.Validate(); err != nil {
		return Config{}, err
	}
	return out, nil
}

// WithWindow returns a new Config using the given analysis window.
func (c Config) WithWindow(start, end time.Time) (Config, error) {
	next := c.clone()
	next.Window = Window{Start: start.UTC(), End: end.UTC()}
	if err := next.Validate(); err != nil {
		return Config{}, err
	}
	return next, nil
}

// WithBoundaries returns a new Config using the given bucket boundaries.
func (c Config) WithBoundaries(recency, frequency, monetary []float64) (Config, error) {
	next := c.clone()
	next.Boundaries = Boundaries{
		Recency:   cloneFloats(recency),
		Frequency: cloneFloats(frequency),
		Monetary:  cloneFloats(monetary),
	}
	if err := next.Validate(); err != nil {
		return Config{}, err
	}
	return next, nil
}

// WithPrivacy returns a new Config using the given privacy settings.
func (c Config) WithPrivacy(p Privacy) (Config, error) {
	next := c.clone()
	next.Privacy = p
	if err := next.Validate(); err != nil {
		return Config{}, err
	}
	return next, nil
}

// Validate checks every invariant of the configuration.
func (c Config) Validate() error {
	if c.Window.End.IsZero() {
		return fmt.Errorf("%w: analysis end date is required", ErrInvalidConfig)
	}
	if !c.Window.Start.IsZero() && c.Window.End.Before(c.Window.Start) {
		return fmt.Errorf("%w: window end %s before start %s", ErrInvalidConfig,
			c.Window.End.Format(time.DateOnly), c.Window.Start.Format(time.DateOnly))
	}
	if err := validateBoundaries("recency", c.Boundaries.Recency); err != nil {
		return err
	}
	if err := validateBoundaries("frequency", c.Boundaries.Frequency); err != nil {
		return err
	}
	if err := validateBoundaries("monetary", c.Boundaries.Monetary); err != nil {
		return err
	}
	if c.Privacy.NoiseLevel < 0 || math.IsNaN(c.Privacy.NoiseLevel) || math.IsInf(c.Privacy.NoiseLevel, 0) {
		return fmt.Errorf("%w: noise level must be a non-negative number, got %v", ErrInvalidConfig, c.Privacy.NoiseLevel)
	}
	if c.Privacy.AnonymizeIDs && (c.Privacy.HashLength < 1 || c.Privacy.HashLength > 64) {
		return fmt.Errorf("%w: pseudonym hash length must be in [1, 64], got %d", ErrInvalidConfig, c.Privacy.HashLength)
	}
	if c.MinPurchase < 0 {
		return fmt.Errorf("%w: min purchase must be >= 0, got %v", ErrInvalidConfig, c.MinPurchase)
	}
	return nil
}

// validateBoundaries requires at least two finite, strictly increasing values.
func validateBoundaries(name string, b []float64) error {
	if len(b) < 2 {
		return fmt.Errorf("%w: %s boundaries need at least 2 values, got %d", ErrInvalidConfig, name, len(b))
	}
	for i, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s boundary %d is not finite", ErrInvalidConfig, name, i)
		}
		if i > 0 && v <= b[i-1] {
			return fmt.Errorf("%w: %s boundaries must be strictly increasing: %v", ErrInvalidConfig, name, b)
		}
	}
	return nil
}

func (c Config) clone() Config {
	out := c
	out.Boundaries = Boundaries{
		Recency:   cloneFloats(c.Boundaries.Recency),
		Frequency: cloneFloats(c.Boundaries.Frequency),
		Monetary:  cloneFloats(c.Boundaries.Monetary),
	}
	return out
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out
}
