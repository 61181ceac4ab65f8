package metrics

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// ErrInvalidParams marks a walk parameter set that cannot produce a valid
// initial snapshot. It is fatal at startup; Advance itself never fails.
var ErrInvalidParams = errors.New("invalid simulator parameters")

// Simulator owns the single current KPI snapshot and advances it once per
// tick with a clamped, mean-reverting random walk. Advance and Current are
// safe for concurrent use; the critical section covers only the field loop.
type Simulator struct {
	params map[string]FieldParams

	mu      sync.RWMutex
	current Snapshot
	rng     *rand.Rand
	tick    int
}

// NewSimulator validates params and seeds the initial snapshot from the
// per-field baselines. A zero seed derives one from the wall clock.
func NewSimulator(params map[string]FieldParams, seed int64) (*Simulator, error) {
	if params == nil {
		params = DefaultFieldParams()
	}
	if err := ValidateParams(params); err != nil {
		return nil, fmt.Errorf("simulator init: %w", err)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Simulator{
		params: params,
		rng:    rand.New(rand.NewSource(seed)),
	}
	var initial Snapshot
	for _, f := range walkFields {
		f.set(&initial, params[f.name].Baseline)
	}
	initial.Timestamp = time.Now().UTC()
	s.current = initial
	return s, nil
}

// Advance produces the next snapshot and makes it current. Each field moves
// by reversion toward its baseline plus bounded jitter plus a shared slow
// sine wave, then is clamped to its band and rounded to display precision.
// The per-field change never exceeds FieldParams.MaxStep.
func (s *Simulator) Advance() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++
	wave := math.Sin(float64(s.tick) / 6.0)

	next := s.current
	for _, f := range walkFields {
		p := s.params[f.name]
		v := f.get(&next)
		v += p.Reversion * (p.Baseline - v)
		v += s.rng.Float64()*2*p.Jitter - p.Jitter
		v += wave * p.Wave
		// Round before the clamp so a boundary value can never be
		// rounded back outside its band.
		f.set(&next, clamp(roundTo(v, p.Decimals), p.Min, p.Max))
	}

	now := time.Now().UTC()
	if !now.After(s.current.Timestamp) {
		now = s.current.Timestamp.Add(time.Nanosecond)
	}
	next.Timestamp = now

	s.current = next
	return next
}

// Current returns the last produced snapshot without advancing the walk.
func (s *Simulator) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Params returns the walk parameters for one field. The second return is
// false for names the simulator does not track.
func (s *Simulator) Params(name string) (FieldParams, bool) {
	p, ok := s.params[name]
	return p, ok
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
