// Package poller converts an asynchronous server-side analysis job into a
// single awaited result.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielladerman/speakflow/internal/api"
	"github.com/danielladerman/speakflow/internal/report"
)

const (
	// DefaultInterval is the fixed wait between poll attempts. Linear, not
	// exponential: analysis jobs finish in seconds to low minutes and the
	// user is actively waiting.
	DefaultInterval = time.Second
	// DefaultMaxAttempts bounds the poll budget.
	DefaultMaxAttempts = 120
)

// ErrTimeout indicates the attempt budget ran out while the job was still
// pending or processing. Distinct from ProcessingFailedError so callers can
// offer "still working, check back later" messaging.
var ErrTimeout = errors.New("analysis is taking longer than expected; try `speakflow report` later")

// ProcessingFailedError indicates the server reported the analysis failed.
type ProcessingFailedError struct {
	Message string
}

func (e *ProcessingFailedError) Error() string {
	if e.Message == "" {
		return "analysis failed"
	}
	return "analysis failed: " + e.Message
}

// UnexpectedStatusError indicates the server returned a status value this
// client does not understand. Treated as fatal rather than polled forever.
type UnexpectedStatusError struct {
	Status api.Status
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected session status %q", e.Status)
}

// StatusFunc queries the processing status of one session.
type StatusFunc func(ctx context.Context, sessionID string) (api.StatusResponse, error)

// FetchFunc retrieves the full report for a completed session.
type FetchFunc func(ctx context.Context, sessionID string) (report.Report, error)

// ProgressFunc observes each polled status in order. Side-effecting
// notification only, never a gate.
type ProgressFunc func(status api.Status)

// Poller drives the status loop for one session. Zero values for Interval,
// MaxAttempts, and Sleep fall back to defaults; Sleep is injectable so tests
// run without real timers.
type Poller struct {
	Status      StatusFunc
	Fetch       FetchFunc
	Interval    time.Duration
	MaxAttempts int
	Sleep       func(context.Context, time.Duration) error
}

// Await polls until the session reaches a terminal status or the attempt
// budget is exhausted, then returns the report fetched exactly once.
//
// Error contract:
//   - server status "failed": *ProcessingFailedError with the server message
//   - budget exhausted while pending/processing: ErrTimeout
//   - unknown status value: *UnexpectedStatusError
//   - transport errors from any call: propagated immediately, unwrapped by
//     errors.Is/As; the poller never retries an individual HTTP failure
//
// Cancellation via ctx stops further polling; a status response already in
// flight is discarded and no progress callback fires after the
// cancellation point. The budget is attempts x interval, not wall clock: a
// stalled request adds to total wait time instead of consuming attempts.
func (p Poller) Await(ctx context.Context, sessionID string, onStatus ProgressFunc) (report.Report, error) {
	if sessionID == "" {
		return report.Report{}, errors.New("session id is empty")
	}
	if p.Status == nil || p.Fetch == nil {
		return report.Report{}, errors.New("poller is missing status or fetch operations")
	}

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return report.Report{}, err
		}

		resp, err := p.Status(ctx, sessionID)
		if err != nil {
			return report.Report{}, err
		}
		if err := ctx.Err(); err != nil {
			// Cancelled while the request was in flight; discard the
			// response and suppress the callback.
			return report.Report{}, err
		}

		if onStatus != nil {
			onStatus(resp.Status)
		}

		switch {
		case resp.Status == api.StatusCompleted:
			return p.Fetch(ctx, sessionID)
		case resp.Status == api.StatusFailed:
			return report.Report{}, &ProcessingFailedError{Message: resp.ErrorMessage}
		case !resp.Status.Known():
			return report.Report{}, &UnexpectedStatusError{Status: resp.Status}
		}

		if attempt+1 < maxAttempts {
			if err := sleep(ctx, interval); err != nil {
				return report.Report{}, err
			}
		}
	}

	return report.Report{}, ErrTimeout
}

// sleepContext waits for d or context cancellation, whichever is first.
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
