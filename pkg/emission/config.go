package emission

import (
	"errors"
	"fmt"
	"math"
)

// Factors maps each mode to its emission factor in kg CO2 per km.
type Factors map[Mode]float64

// CreditConfig holds the carbon-credit conversion constants.
// Prices are in Brazilian reais.
type CreditConfig struct {
	KgPerCredit       float64 `json:"kg_per_credit"`
	PriceMinPerCredit float64 `json:"price_min_per_credit"`
	PriceMaxPerCredit float64 `json:"price_max_per_credit"`
}

// Config is the static configuration consumed by the Engine.
type Config struct {
	Factors Factors      `json:"factors"`
	Credits CreditConfig `json:"credits"`
}

// Default credit constants.
const (
	DefaultKgPerCredit       = 1000
	DefaultPriceMinPerCredit = 50
	DefaultPriceMaxPerCredit = 150
)

// DefaultFactors returns the built-in emission factors.
func DefaultFactors() Factors {
	return Factors{
		Bicycle: 0,
		Car:     0.12,
		Plane:   0.255,
		Boat:    0.045,
		Bus:     0.089,
		Truck:   0.96,
	}
}

// DefaultCreditConfig returns the built-in credit constants.
func DefaultCreditConfig() CreditConfig {
	return CreditConfig{
		KgPerCredit:       DefaultKgPerCredit,
		PriceMinPerCredit: DefaultPriceMinPerCredit,
		PriceMaxPerCredit: DefaultPriceMaxPerCredit,
	}
}

// DefaultConfig returns the built-in engine configuration.
func DefaultConfig() Config {
	return Config{
		Factors: DefaultFactors(),
		Credits: DefaultCreditConfig(),
	}
}

// Validate checks that every known mode has a finite, non-negative factor
// and that the credit constants are usable.
func (c Config) Validate() error {
	var errs []error

	for _, m := range knownModes {
		f, ok := c.Factors[m]
		if !ok {
			errs = append(errs, fmt.Errorf("missing emission factor for mode %q", m))
			continue
		}
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			errs = append(errs, fmt.Errorf("emission factor for mode %q must be finite and >= 0, got %f", m, f))
		}
	}
	for m := range c.Factors {
		if !m.Valid() {
			errs = append(errs, fmt.Errorf("emission factor for unknown mode %q", m))
		}
	}

	if !(c.Credits.KgPerCredit > 0) {
		errs = append(errs, fmt.Errorf("kg per credit must be greater than 0, got %f", c.Credits.KgPerCredit))
	}
	if c.Credits.PriceMinPerCredit < 0 {
		errs = append(errs, fmt.Errorf("minimum credit price must be >= 0, got %f", c.Credits.PriceMinPerCredit))
	}
	if c.Credits.PriceMaxPerCredit < c.Credits.PriceMinPerCredit {
		errs = append(errs, fmt.Errorf("maximum credit price %f is below minimum %f",
			c.Credits.PriceMaxPerCredit, c.Credits.PriceMinPerCredit))
	}

	return errors.Join(errs...)
}

func (c Config) clone() Config {
	factors := make(Factors, len(c.Factors))
	for m, f := range c.Factors {
		factors[m] = f
	}
	return Config{Factors: factors, Credits: c.Credits}
}
