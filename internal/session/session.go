// Package session coordinates one recording-to-report lifecycle: capture,
// upload, completion wait, and phase transitions.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielladerman/speakflow/internal/api"
	"github.com/danielladerman/speakflow/internal/fsm"
	"github.com/danielladerman/speakflow/internal/ipc"
	"github.com/danielladerman/speakflow/internal/report"
)

type action int

const (
	actionStop action = iota + 1
	actionCancel
)

// Result is the complete lifecycle output returned by one Run invocation.
type Result struct {
	State         fsm.State
	SessionID     string
	Report        *report.Report
	Cancelled     bool
	Err           error
	AudioDevice   string
	AudioDuration time.Duration
	BytesUploaded int64
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Controller orchestrates session state transitions and side effects. The
// flow is strictly sequential: at most one of recording/uploading/
// processing is active, and each phase's side effect fires exactly once
// per entry.
type Controller struct {
	logger   *slog.Logger
	recorder Recorder
	uploader Uploader
	waiter   Waiter
	notifier Notifier

	mu    sync.RWMutex
	state fsm.State

	actions chan action
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	recorder Recorder,
	uploader Uploader,
	waiter Waiter,
	notifier Notifier,
) *Controller {
	if recorder == nil {
		recorder = PlaceholderRecorder{}
	}
	if uploader == nil {
		uploader = UploadFunc(func(context.Context, Clip) (string, error) {
			return "", &UploadFailedError{Err: fmt.Errorf("no uploader wired")}
		})
	}
	if waiter == nil {
		waiter = AwaitFunc(func(context.Context, string, func(api.Status)) (report.Report, error) {
			return report.Report{}, fmt.Errorf("no waiter wired")
		})
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}

	return &Controller{
		logger:   logger,
		recorder: recorder,
		uploader: uploader,
		waiter:   waiter,
		notifier: notifier,
		state:    fsm.StateIdle,
		actions:  make(chan action, 1),
	}
}

// State returns the current phase snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Run executes one lifecycle from start through results/error completion.
// On success the controller rests in the results phase until Acknowledge.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{StartedAt: time.Now()}

	if state := c.State(); state != fsm.StateIdle {
		return c.finish(result, fmt.Errorf("cannot start from state %s", state))
	}

	// Capture hardware starts before the phase flips: a denied microphone
	// leaves the phase at idle, never recording.
	if err := c.recorder.Start(ctx); err != nil {
		c.notifier.ShowError(ctx, "Unable to start recording")
		return c.finish(result, err)
	}

	if err := c.transition(fsm.EventStart); err != nil {
		_ = c.recorder.Cancel(context.Background())
		return c.finish(result, err)
	}

	c.notifier.ShowRecording(ctx)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
		defer cancel()
		c.notifier.Hide(cleanupCtx)
	}()

	select {
	case <-ctx.Done():
		_ = c.recorder.Cancel(context.Background())
		c.notifier.ShowError(context.Background(), "Cancelled")
		c.toErrorAndReset()
		return c.finish(result, ctx.Err())
	case a := <-c.actions:
		switch a {
		case actionCancel:
			_ = c.recorder.Cancel(context.Background())
			_ = c.transition(fsm.EventCancel)
			result.Cancelled = true
			return c.finish(result, nil)
		case actionStop:
			return c.stopAndAwait(ctx, result)
		default:
			c.toErrorAndReset()
			return c.finish(result, fmt.Errorf("unknown action %d", a))
		}
	}
}

// stopAndAwait drives the uploading and processing phases after a stop
// request.
func (c *Controller) stopAndAwait(ctx context.Context, result Result) Result {
	if err := c.transition(fsm.EventStop); err != nil {
		c.toErrorAndReset()
		return c.finish(result, err)
	}

	clip, err := c.recorder.Stop(ctx)
	result.AudioDevice = clip.Device
	result.AudioDuration = clip.Duration
	if err != nil {
		c.notifier.ShowError(context.Background(), "Recording failed")
		c.toErrorAndReset()
		return c.finish(result, err)
	}

	if clip.Empty() {
		// Nothing to analyze: skip uploading/processing entirely.
		c.notifier.ShowError(context.Background(), "No audio captured")
		c.toErrorAndReset()
		return c.finish(result, ErrNoAudioCaptured)
	}

	c.notifier.ShowUploading(ctx)
	result.BytesUploaded = int64(len(clip.WAV))

	sessionID, err := c.uploader.Upload(ctx, clip)
	if err != nil {
		c.notifier.ShowError(context.Background(), "Upload failed")
		c.toErrorAndReset()
		return c.finish(result, &UploadFailedError{Err: err})
	}
	result.SessionID = sessionID

	if err := c.transition(fsm.EventUploaded); err != nil {
		c.toErrorAndReset()
		return c.finish(result, err)
	}

	rep, err := c.waiter.Await(ctx, sessionID, func(status api.Status) {
		c.notifier.ShowProcessing(ctx, status)
	})
	if err != nil {
		c.notifier.ShowError(context.Background(), "Analysis did not complete")
		c.toErrorAndReset()
		return c.finish(result, err)
	}

	if err := c.transition(fsm.EventCompleted); err != nil {
		c.toErrorAndReset()
		return c.finish(result, err)
	}

	c.notifier.ShowResults(ctx)
	result.Report = &rep
	return c.finish(result, nil)
}

// Acknowledge returns the controller to idle after the user has seen the
// results or error, clearing phase-local state.
func (c *Controller) Acknowledge() {
	_ = c.transition(fsm.EventReset)
}

// finish stamps the terminal snapshot onto the result.
func (c *Controller) finish(result Result, err error) Result {
	result.State = c.State()
	result.Err = err
	result.FinishedAt = time.Now()
	return result
}

// Handle serves IPC commands for the active session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return ipc.Response{OK: true, State: string(c.State()), Message: "status"}
	case "toggle":
		return c.requestStop("toggle")
	case "stop":
		return c.requestStop("stop")
	case "cancel":
		return c.requestCancel()
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// requestStop enqueues a stop action when state permits it. A second stop
// while uploading or processing is a no-op.
func (c *Controller) requestStop(source string) ipc.Response {
	state := c.State()
	if state == fsm.StateUploading || state == fsm.StateProcessing {
		return ipc.Response{OK: true, State: string(state), Message: "already stopping"}
	}
	if state != fsm.StateRecording {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot %s from state %s", source, state)}
	}

	select {
	case c.actions <- actionStop:
		return ipc.Response{OK: true, State: string(state), Message: "stop requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Message: "stop already requested"}
	}
}

// requestCancel enqueues a cancel action when state permits it.
func (c *Controller) requestCancel() ipc.Response {
	state := c.State()
	if state == fsm.StateUploading || state == fsm.StateProcessing {
		return ipc.Response{OK: false, State: string(state), Error: "cannot cancel after recording stopped"}
	}
	if state != fsm.StateRecording {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot cancel from state %s", state)}
	}

	select {
	case c.actions <- actionCancel:
		return ipc.Response{OK: true, State: string(state), Message: "cancel requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Message: "cancel already requested"}
	}
}

// toErrorAndReset transitions to error and back to idle best-effort.
func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}
