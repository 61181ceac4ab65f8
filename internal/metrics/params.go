package metrics

import (
	"fmt"
	"math"
)

// FieldParams controls the random walk for a single KPI field.
type FieldParams struct {
	// Baseline is the initial value and the mean-reversion target.
	Baseline float64 `mapstructure:"baseline" yaml:"baseline"`
	// Min and Max clamp the field to its plausible operating band.
	Min float64 `mapstructure:"min" yaml:"min"`
	Max float64 `mapstructure:"max" yaml:"max"`
	// Jitter is the half-width of the uniform per-tick perturbation.
	Jitter float64 `mapstructure:"jitter" yaml:"jitter"`
	// Wave is the signed amplitude of the shared sinusoidal component,
	// giving the series a slow shift-cycle rhythm on top of the jitter.
	Wave float64 `mapstructure:"wave" yaml:"wave"`
	// Reversion is the fraction of the distance back to Baseline applied
	// each tick, keeping the series near realistic operating ranges.
	Reversion float64 `mapstructure:"reversion" yaml:"reversion"`
	// Decimals is the display precision the field is rounded to.
	Decimals int `mapstructure:"decimals" yaml:"decimals"`
}

// MaxStep is the guaranteed upper bound on the per-tick change of the field.
// Reversion acts on an in-band value, jitter and wave are amplitude-bounded,
// clamping only ever shrinks the step, and rounding adds at most half a unit
// of the last decimal.
func (p FieldParams) MaxStep() float64 {
	return p.Reversion*(p.Max-p.Min) + p.Jitter + math.Abs(p.Wave) + 0.5*math.Pow(10, -float64(p.Decimals))
}

// validate reports the first violated constraint for the field.
func (p FieldParams) validate(name string) error {
	if p.Min >= p.Max {
		return fmt.Errorf("field %s: min %.2f must be below max %.2f: %w", name, p.Min, p.Max, ErrInvalidParams)
	}
	if p.Baseline < p.Min || p.Baseline > p.Max {
		return fmt.Errorf("field %s: baseline %.2f outside band [%.2f, %.2f]: %w", name, p.Baseline, p.Min, p.Max, ErrInvalidParams)
	}
	if p.Jitter < 0 {
		return fmt.Errorf("field %s: negative jitter %.2f: %w", name, p.Jitter, ErrInvalidParams)
	}
	if p.Reversion < 0 || p.Reversion >= 1 {
		return fmt.Errorf("field %s: reversion %.2f outside [0, 1): %w", name, p.Reversion, ErrInvalidParams)
	}
	if p.Decimals < 0 || p.Decimals > 6 {
		return fmt.Errorf("field %s: decimals %d outside [0, 6]: %w", name, p.Decimals, ErrInvalidParams)
	}
	return nil
}

// DefaultFieldParams returns the stock walk parameters for every KPI field.
// Baselines and bands mirror the operating ranges of a mid-size parcel
// network; percentages stay in tight bands, volumes move more freely.
func DefaultFieldParams() map[string]FieldParams {
	return map[string]FieldParams{
		FieldOnTimeDeliveryRate: {Baseline: 94.2, Min: 85.0, Max: 99.0, Jitter: 1.2, Wave: 0.6, Reversion: 0.02, Decimals: 1},
		FieldAvgDeliveryTime:    {Baseline: 31.5, Min: 24.0, Max: 48.0, Jitter: 1.5, Wave: -0.8, Reversion: 0.02, Decimals: 1},
		FieldPerfectOrderRate:   {Baseline: 92.0, Min: 85.0, Max: 98.0, Jitter: 1.0, Wave: 0, Reversion: 0.02, Decimals: 1},
		FieldOrdersPerHour:      {Baseline: 118.0, Min: 70.0, Max: 180.0, Jitter: 12.0, Wave: 5.0, Reversion: 0.02, Decimals: 1},
		FieldOrderAccuracy:      {Baseline: 97.1, Min: 92.0, Max: 99.5, Jitter: 0.8, Wave: 0, Reversion: 0.02, Decimals: 1},
		FieldStockoutRate:       {Baseline: 2.8, Min: 0.5, Max: 8.0, Jitter: 0.4, Wave: -0.2, Reversion: 0.02, Decimals: 2},
		FieldPickPackCycleTime:  {Baseline: 24.0, Min: 15.0, Max: 40.0, Jitter: 2.0, Wave: -0.5, Reversion: 0.02, Decimals: 1},
		FieldTruckUtilization:   {Baseline: 76.0, Min: 55.0, Max: 95.0, Jitter: 2.5, Wave: 1.2, Reversion: 0.02, Decimals: 1},
		FieldAvgDwellTime:       {Baseline: 46.0, Min: 30.0, Max: 80.0, Jitter: 3.0, Wave: 1.0, Reversion: 0.02, Decimals: 1},
		FieldCostPerOrder:       {Baseline: 8.7, Min: 6.5, Max: 12.0, Jitter: 0.6, Wave: -0.3, Reversion: 0.02, Decimals: 2},
		FieldOperatingRatio:     {Baseline: 86.0, Min: 78.0, Max: 95.0, Jitter: 1.5, Wave: -1.0, Reversion: 0.02, Decimals: 1},
		FieldHoursDriven:        {Baseline: 910.0, Min: 700.0, Max: 1100.0, Jitter: 25.0, Wave: 8.0, Reversion: 0.02, Decimals: 1},
		FieldIncidentRate:       {Baseline: 2.1, Min: 0.5, Max: 5.0, Jitter: 0.4, Wave: 0.1, Reversion: 0.02, Decimals: 2},
	}
}

// ValidateParams checks a full parameter set. Every simulated field must be
// present and well-formed; unknown keys are rejected so configuration typos
// fail loudly at startup.
func ValidateParams(params map[string]FieldParams) error {
	known := make(map[string]struct{}, len(walkFields))
	for _, f := range walkFields {
		known[f.name] = struct{}{}
		p, ok := params[f.name]
		if !ok {
			return fmt.Errorf("field %s: missing parameters: %w", f.name, ErrInvalidParams)
		}
		if err := p.validate(f.name); err != nil {
			return err
		}
	}
	for name := range params {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("unknown field %q: %w", name, ErrInvalidParams)
		}
	}
	return nil
}
