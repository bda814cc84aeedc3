// Package emission computes trip CO2 emissions, cross-mode comparisons,
// savings against the car baseline and carbon-credit estimates.
//
// The fail-open operations (Emission, Savings, CarbonCredits, CreditPrice)
// never return an error: invalid input yields the neutral zero value and a
// warning is reported to the configured logger and hook. Each has a strict
// counterpart returning the reason instead.
package emission

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"
)

// ComparisonEntry is one mode's emission relative to the car baseline.
type ComparisonEntry struct {
	Mode            Mode    `json:"mode"`
	EmissionKg      float64 `json:"emission_kg"`
	PercentageVsCar float64 `json:"percentage_vs_car"`
}

// Savings is the reduction of an emission against a baseline.
// Negative values mean the emission exceeds the baseline.
type Savings struct {
	SavedKg    float64 `json:"saved_kg"`
	Percentage float64 `json:"percentage"`
}

// PriceEstimate is the price range for a number of carbon credits.
type PriceEstimate struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// Warning describes an input the engine replaced with a neutral default.
type Warning struct {
	Op  string
	Err error
}

// WarningHook receives every warning raised by the fail-open operations.
type WarningHook func(Warning)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWarningHook registers a hook called for every warning.
func WithWarningHook(hook WarningHook) Option {
	return func(e *Engine) {
		e.hook = hook
	}
}

// Engine evaluates the emission formulas against an immutable Config.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	hook   WarningHook
}

// New validates cfg and returns an Engine holding a private copy of it.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid emission config: %w", err)
	}

	e := &Engine{
		cfg:    cfg.clone(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "emission")

	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg.clone()
}

// Factor returns the emission factor of m.
func (e *Engine) Factor(m Mode) (float64, bool) {
	f, ok := e.cfg.Factors[m]
	return f, ok
}

// EmissionStrict returns distanceKm * factor(mode) rounded to 2 decimals.
func (e *Engine) EmissionStrict(distanceKm float64, mode Mode) (float64, error) {
	factor, ok := e.cfg.Factors[mode]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if !nonNegative(distanceKm) {
		return 0, fmt.Errorf("%w: got %v", ErrNegativeDistance, distanceKm)
	}
	return round2(distanceKm * factor), nil
}

// Emission is the fail-open form of EmissionStrict.
func (e *Engine) Emission(distanceKm float64, mode Mode) float64 {
	v, err := e.EmissionStrict(distanceKm, mode)
	if err != nil {
		e.warn("emission", err, "distance_km", distanceKm, "mode", string(mode))
		return 0
	}
	return v
}

// AllModes returns the emission of every known mode for distanceKm, sorted
// ascending by emission. When the car baseline is zero the result is empty.
func (e *Engine) AllModes(distanceKm float64) []ComparisonEntry {
	baseline := e.Emission(distanceKm, Baseline)
	if baseline == 0 {
		return []ComparisonEntry{}
	}

	entries := make([]ComparisonEntry, 0, len(knownModes))
	for _, m := range knownModes {
		v := e.Emission(distanceKm, m)
		entries = append(entries, ComparisonEntry{
			Mode:            m,
			EmissionKg:      v,
			PercentageVsCar: round2(v / baseline * 100),
		})
	}

	slices.SortStableFunc(entries, func(a, b ComparisonEntry) int {
		return cmp.Compare(a.EmissionKg, b.EmissionKg)
	})
	return entries
}

// SavingsStrict compares emission against baselineEmission. The percentage
// is derived from the already rounded saved amount.
func (e *Engine) SavingsStrict(emission, baselineEmission float64) (Savings, error) {
	if baselineEmission == 0 {
		return Savings{}, ErrZeroBaseline
	}
	saved := round2(baselineEmission - emission)
	return Savings{
		SavedKg:    saved,
		Percentage: math.Round(saved/baselineEmission*10000) / 100,
	}, nil
}

// Savings is the fail-open form of SavingsStrict.
func (e *Engine) Savings(emission, baselineEmission float64) Savings {
	s, err := e.SavingsStrict(emission, baselineEmission)
	if err != nil {
		e.warn("savings", err, "emission_kg", emission, "baseline_kg", baselineEmission)
		return Savings{}
	}
	return s
}

// CarbonCreditsStrict converts kg of CO2 into credits, rounded to 4 decimals.
func (e *Engine) CarbonCreditsStrict(emissionKg float64) (float64, error) {
	if !nonNegative(emissionKg) {
		return 0, fmt.Errorf("%w: emission %v", ErrNegativeAmount, emissionKg)
	}
	return round4(emissionKg / e.cfg.Credits.KgPerCredit), nil
}

// CarbonCredits is the fail-open form of CarbonCreditsStrict.
func (e *Engine) CarbonCredits(emissionKg float64) float64 {
	v, err := e.CarbonCreditsStrict(emissionKg)
	if err != nil {
		e.warn("carbon_credits", err, "emission_kg", emissionKg)
		return 0
	}
	return v
}

// CreditPriceStrict estimates the price range of credits. The average is
// taken over the rounded min and max.
func (e *Engine) CreditPriceStrict(credits float64) (PriceEstimate, error) {
	if !nonNegative(credits) {
		return PriceEstimate{}, fmt.Errorf("%w: credits %v", ErrNegativeAmount, credits)
	}
	lo := round2(credits * e.cfg.Credits.PriceMinPerCredit)
	hi := round2(credits * e.cfg.Credits.PriceMaxPerCredit)
	return PriceEstimate{
		Min:     lo,
		Max:     hi,
		Average: round2((lo + hi) / 2),
	}, nil
}

// CreditPrice is the fail-open form of CreditPriceStrict.
func (e *Engine) CreditPrice(credits float64) PriceEstimate {
	p, err := e.CreditPriceStrict(credits)
	if err != nil {
		e.warn("credit_price", err, "credits", credits)
		return PriceEstimate{}
	}
	return p
}

func (e *Engine) warn(op string, err error, args ...any) {
	e.logger.Warn("invalid input replaced with zero",
		append([]any{"op", op, "reason", err.Error()}, args...)...)
	if e.hook != nil {
		e.hook(Warning{Op: op, Err: err})
	}
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
