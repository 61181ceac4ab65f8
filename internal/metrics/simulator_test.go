package metrics

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSimulator_DefaultsAreValid(t *testing.T) {
	sim, err := NewSimulator(nil, 1)
	require.NoError(t, err)

	snap := sim.Current()
	assert.Equal(t, 94.2, snap.OnTimeDeliveryRate)
	assert.Equal(t, 118.0, snap.OrdersPerHour)
	assert.Equal(t, 910.0, snap.HoursDriven)
	assert.False(t, snap.Timestamp.IsZero())
}

func TestNewSimulator_RejectsBadParams(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(map[string]FieldParams)
	}{
		{"baseline above band", func(p map[string]FieldParams) {
			f := p[FieldOnTimeDeliveryRate]
			f.Baseline = 120
			p[FieldOnTimeDeliveryRate] = f
		}},
		{"inverted band", func(p map[string]FieldParams) {
			f := p[FieldCostPerOrder]
			f.Min, f.Max = f.Max, f.Min
			p[FieldCostPerOrder] = f
		}},
		{"negative jitter", func(p map[string]FieldParams) {
			f := p[FieldStockoutRate]
			f.Jitter = -1
			p[FieldStockoutRate] = f
		}},
		{"missing field", func(p map[string]FieldParams) {
			delete(p, FieldIncidentRate)
		}},
		{"unknown field", func(p map[string]FieldParams) {
			p["warp_factor"] = FieldParams{Baseline: 1, Min: 0, Max: 10}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultFieldParams()
			tc.mutate(params)
			_, err := NewSimulator(params, 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestAdvance_BoundedDrift(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 1234} {
		sim, err := NewSimulator(nil, seed)
		require.NoError(t, err)

		prev := sim.Current()
		for i := 0; i < 200; i++ {
			next := sim.Advance()
			for _, f := range walkFields {
				p, ok := sim.Params(f.name)
				require.True(t, ok)
				delta := math.Abs(f.get(&next) - f.get(&prev))
				assert.LessOrEqualf(t, delta, p.MaxStep(),
					"seed %d tick %d field %s moved %.4f, bound %.4f", seed, i, f.name, delta, p.MaxStep())
			}
			prev = next
		}
	}
}

func TestAdvance_StaysInsideBands(t *testing.T) {
	for _, seed := range []int64{3, 99, 20260830} {
		sim, err := NewSimulator(nil, seed)
		require.NoError(t, err)

		for i := 0; i < 500; i++ {
			snap := sim.Advance()
			for _, f := range walkFields {
				p, _ := sim.Params(f.name)
				v := f.get(&snap)
				assert.GreaterOrEqualf(t, v, p.Min, "seed %d field %s below band", seed, f.name)
				assert.LessOrEqualf(t, v, p.Max, "seed %d field %s above band", seed, f.name)
			}
			// Percentage KPIs additionally never escape [0, 100].
			for _, rate := range []float64{
				snap.OnTimeDeliveryRate, snap.PerfectOrderRate, snap.OrderAccuracy,
				snap.StockoutRate, snap.TruckUtilization, snap.OperatingRatio,
			} {
				assert.GreaterOrEqual(t, rate, 0.0)
				assert.LessOrEqual(t, rate, 100.0)
			}
		}
	}
}

func TestAdvance_TimestampsStrictlyIncrease(t *testing.T) {
	sim, err := NewSimulator(nil, 5)
	require.NoError(t, err)

	prev := sim.Current().Timestamp
	for i := 0; i < 1000; i++ {
		ts := sim.Advance().Timestamp
		require.True(t, ts.After(prev), "tick %d: %v not after %v", i, ts, prev)
		prev = ts
	}
}

func TestCurrent_ConcurrentWithAdvance(t *testing.T) {
	sim, err := NewSimulator(nil, 11)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := sim.Current()
				// A torn read would show a zero timestamp or an
				// out-of-band field.
				if snap.Timestamp.IsZero() || snap.OnTimeDeliveryRate < 85.0 || snap.OnTimeDeliveryRate > 99.0 {
					t.Error("observed inconsistent snapshot")
					return
				}
			}
		}()
	}
	for i := 0; i < 500; i++ {
		sim.Advance()
	}
	close(stop)
	wg.Wait()
}

func TestSimulator_OnTimeBaselineScenario(t *testing.T) {
	params := DefaultFieldParams()
	f := params[FieldOnTimeDeliveryRate]
	f.Baseline = 95.0
	params[FieldOnTimeDeliveryRate] = f

	sim, err := NewSimulator(params, 21)
	require.NoError(t, err)
	require.Equal(t, 95.0, sim.Current().OnTimeDeliveryRate)

	first := sim.Advance()
	assert.InDelta(t, 95.0, first.OnTimeDeliveryRate, f.MaxStep())
	assert.Equal(t, first, sim.Current(), "on-demand read must match the broadcast value")

	for i := 0; i < 100; i++ {
		snap := sim.Advance()
		require.GreaterOrEqual(t, snap.OnTimeDeliveryRate, 0.0)
		require.LessOrEqual(t, snap.OnTimeDeliveryRate, 100.0)
	}
}
