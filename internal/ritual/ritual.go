// Package ritual runs the short breathing countdown that precedes a
// recording, giving the speaker a settled starting point.
package ritual

import (
	"context"
	"fmt"
	"time"

	"github.com/danielladerman/speakflow/internal/config"
)

// Phase names one step inside a breathing cycle.
type Phase string

const (
	PhaseInhale Phase = "inhale"
	PhaseHold   Phase = "hold"
	PhaseExhale Phase = "exhale"
)

// Step is one timed phase handed to the progress callback before its
// countdown starts.
type Step struct {
	Phase    Phase
	Cycle    int
	Cycles   int
	Duration time.Duration
}

// ProgressFunc observes each step as it begins. Tick fires once per
// elapsed second within the step, counting down to zero.
type ProgressFunc func(step Step, remaining time.Duration)

// Ritual drives the configured breathing cycles. The zero value is not
// usable; construct with New.
type Ritual struct {
	steps []Step

	// Sleep is replaceable in tests; nil means time.Sleep honoring ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New builds a ritual from config. A disabled ritual yields no steps and
// Run returns immediately.
func New(cfg config.RitualConfig) *Ritual {
	r := &Ritual{}
	if !cfg.Enable {
		return r
	}

	for cycle := 1; cycle <= cfg.Cycles; cycle++ {
		r.steps = append(r.steps, Step{
			Phase:    PhaseInhale,
			Cycle:    cycle,
			Cycles:   cfg.Cycles,
			Duration: time.Duration(cfg.InhaleSec) * time.Second,
		})
		if cfg.HoldSec > 0 {
			r.steps = append(r.steps, Step{
				Phase:    PhaseHold,
				Cycle:    cycle,
				Cycles:   cfg.Cycles,
				Duration: time.Duration(cfg.HoldSec) * time.Second,
			})
		}
		r.steps = append(r.steps, Step{
			Phase:    PhaseExhale,
			Cycle:    cycle,
			Cycles:   cfg.Cycles,
			Duration: time.Duration(cfg.ExhaleSec) * time.Second,
		})
	}
	return r
}

// Steps returns the planned phase sequence.
func (r *Ritual) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// TotalDuration reports the full countdown length.
func (r *Ritual) TotalDuration() time.Duration {
	var total time.Duration
	for _, step := range r.steps {
		total += step.Duration
	}
	return total
}

// Run walks every step, ticking once per second. Cancellation aborts
// between ticks and returns ctx.Err().
func (r *Ritual) Run(ctx context.Context, onProgress ProgressFunc) error {
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for _, step := range r.steps {
		for remaining := step.Duration; remaining > 0; remaining -= time.Second {
			if err := ctx.Err(); err != nil {
				return err
			}
			if onProgress != nil {
				onProgress(step, remaining)
			}
			tick := time.Second
			if remaining < tick {
				tick = remaining
			}
			if err := sleep(ctx, tick); err != nil {
				return err
			}
		}
	}
	return nil
}

// Label renders a phase step for terminal display.
func (s Step) Label() string {
	if s.Cycles > 1 {
		return fmt.Sprintf("%s (%d/%d)", s.Phase, s.Cycle, s.Cycles)
	}
	return string(s.Phase)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
