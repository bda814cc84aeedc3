package emission

// TripReport gathers everything the estimator shows for one trip.
type TripReport struct {
	DistanceKm float64           `json:"distance_km"`
	Mode       Mode              `json:"mode"`
	EmissionKg float64           `json:"emission_kg"`
	BaselineKg float64           `json:"baseline_kg"`
	Savings    *Savings          `json:"savings,omitempty"`
	Comparison []ComparisonEntry `json:"comparison"`
	Credits    float64           `json:"credits"`
	Price      PriceEstimate     `json:"price"`
}

// Estimate runs the full calculation for one trip. Savings are only
// reported when mode is not the baseline itself.
func (e *Engine) Estimate(distanceKm float64, mode Mode) TripReport {
	emission := e.Emission(distanceKm, mode)
	baseline := e.Emission(distanceKm, Baseline)
	credits := e.CarbonCredits(emission)

	report := TripReport{
		DistanceKm: distanceKm,
		Mode:       mode,
		EmissionKg: emission,
		BaselineKg: baseline,
		Comparison: e.AllModes(distanceKm),
		Credits:    credits,
		Price:      e.CreditPrice(credits),
	}

	if mode != Baseline {
		s := e.Savings(emission, baseline)
		report.Savings = &s
	}

	return report
}
