package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRecorderUnavailable indicates runtime audio capture wiring is missing.
	ErrRecorderUnavailable = errors.New("audio capture pipeline not implemented")
	// ErrNoAudioCaptured indicates stop completed but the recording was empty.
	ErrNoAudioCaptured = errors.New("no audio captured; check microphone input or mute state")
)

// Clip is the captured audio handed to the uploader.
type Clip struct {
	WAV         []byte
	ContentType string
	Duration    time.Duration
	Device      string
}

// Empty reports whether the clip holds no usable audio.
func (c Clip) Empty() bool {
	return len(c.WAV) == 0
}

// Recorder abstracts microphone capture for session orchestration.
type Recorder interface {
	Start(context.Context) error
	Stop(context.Context) (Clip, error)
	Cancel(context.Context) error
}

// PlaceholderRecorder is a no-op placeholder used in tests/fallback wiring.
type PlaceholderRecorder struct{}

func (PlaceholderRecorder) Start(context.Context) error {
	return nil
}

func (PlaceholderRecorder) Stop(context.Context) (Clip, error) {
	return Clip{}, ErrRecorderUnavailable
}

func (PlaceholderRecorder) Cancel(context.Context) error {
	return nil
}
