package session

import (
	"context"
	"fmt"

	"github.com/danielladerman/speakflow/internal/api"
	"github.com/danielladerman/speakflow/internal/report"
)

// UploadFailedError wraps a transport or server failure during upload.
// Uploads are never retried at this layer; retry is a fresh user-initiated
// recording.
type UploadFailedError struct {
	Err error
}

func (e *UploadFailedError) Error() string {
	return fmt.Sprintf("upload failed: %v", e.Err)
}

func (e *UploadFailedError) Unwrap() error {
	return e.Err
}

// Uploader sends a finished clip to the analysis service and returns the
// server-assigned session identifier.
type Uploader interface {
	Upload(context.Context, Clip) (string, error)
}

// UploadFunc adapts a function to the Uploader interface.
type UploadFunc func(context.Context, Clip) (string, error)

func (f UploadFunc) Upload(ctx context.Context, clip Clip) (string, error) {
	return f(ctx, clip)
}

// Waiter blocks until the uploaded session reaches a terminal state and
// returns its report. Only one waiter may run per session at a time.
type Waiter interface {
	Await(ctx context.Context, sessionID string, onStatus func(api.Status)) (report.Report, error)
}

// AwaitFunc adapts a function to the Waiter interface.
type AwaitFunc func(ctx context.Context, sessionID string, onStatus func(api.Status)) (report.Report, error)

func (f AwaitFunc) Await(ctx context.Context, sessionID string, onStatus func(api.Status)) (report.Report, error) {
	return f(ctx, sessionID, onStatus)
}

// Notifier is the session-facing subset of presentation behavior.
type Notifier interface {
	ShowRecording(context.Context)
	ShowUploading(context.Context)
	ShowProcessing(context.Context, api.Status)
	ShowResults(context.Context)
	ShowError(context.Context, string)
	Hide(context.Context)
}

// noopNotifier preserves session flow when no notifier is wired.
type noopNotifier struct{}

func (noopNotifier) ShowRecording(context.Context)              {}
func (noopNotifier) ShowUploading(context.Context)              {}
func (noopNotifier) ShowProcessing(context.Context, api.Status) {}
func (noopNotifier) ShowResults(context.Context)                {}
func (noopNotifier) ShowError(context.Context, string)          {}
func (noopNotifier) Hide(context.Context)                       {}
