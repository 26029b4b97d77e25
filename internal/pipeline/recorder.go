// Package pipeline owns the capture side of a practice session: device
// selection, PCM accumulation, and WAV clip assembly.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/danielladerman/speakflow/internal/audio"
	"github.com/danielladerman/speakflow/internal/config"
	"github.com/danielladerman/speakflow/internal/session"
)

// captureClient is the slice of audio.Capture the recorder depends on.
type captureClient interface {
	Stop() error
	Chunks() <-chan []byte
	BytesCaptured() int64
	RawPCM() []byte
}

// Recorder implements session.Recorder on top of Pulse capture. One
// Recorder drives at most one recording at a time.
type Recorder struct {
	cfg    config.Config
	logger *slog.Logger

	mu        sync.Mutex
	started   bool
	selection audio.Selection
	capture   captureClient
	drainDone chan struct{}

	// test seams
	selectDevice func(context.Context, string, string) (audio.Selection, error)
	startCapture func(context.Context, audio.Device) (captureClient, error)
}

// NewRecorder constructs a pipeline recorder from runtime config.
func NewRecorder(cfg config.Config, logger *slog.Logger) *Recorder {
	return &Recorder{
		cfg:          cfg,
		logger:       logger,
		selectDevice: audio.SelectDevice,
		startCapture: func(ctx context.Context, device audio.Device) (captureClient, error) {
			return audio.StartCapture(ctx, device)
		},
	}
}

// Start resolves the input device and begins streaming PCM into memory.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("recorder already started")
	}

	selection, err := r.selectDevice(ctx, r.cfg.Audio.Input, r.cfg.Audio.Fallback)
	if err != nil {
		return err
	}
	r.selection = selection
	if selection.Warning != "" {
		r.logWarn(selection.Warning)
	}

	capture, err := r.startCapture(ctx, selection.Device)
	if err != nil {
		return err
	}
	r.capture = capture

	r.drainDone = make(chan struct{})
	go r.drain(capture, r.drainDone)

	r.started = true
	return nil
}

// drain pulls capture chunks until the stream closes. The chunks channel
// must be emptied even when nobody wants the audio, or capture stalls.
func (r *Recorder) drain(capture captureClient, done chan struct{}) {
	defer close(done)
	for range capture.Chunks() {
	}
}

// Stop halts capture and returns the finished clip.
func (r *Recorder) Stop(_ context.Context) (session.Clip, error) {
	r.mu.Lock()
	started := r.started
	capture := r.capture
	selection := r.selection
	drainDone := r.drainDone
	r.reset()
	r.mu.Unlock()

	if !started || capture == nil {
		return session.Clip{}, session.ErrRecorderUnavailable
	}

	if err := capture.Stop(); err != nil {
		return session.Clip{}, fmt.Errorf("stop audio capture: %w", err)
	}
	if drainDone != nil {
		<-drainDone
	}

	pcm := capture.RawPCM()
	r.writeDebugAudio(pcm)

	clip := session.Clip{
		ContentType: "audio/wav",
		Duration:    time.Duration(len(pcm)) * time.Second / audio.BytesPerSecond,
		Device:      describeDevice(selection.Device),
	}
	if len(pcm) > 0 {
		clip.WAV = audio.EncodeWAV(pcm)
	}
	return clip, nil
}

// Cancel stops capture and discards everything recorded so far.
func (r *Recorder) Cancel(_ context.Context) error {
	r.mu.Lock()
	capture := r.capture
	drainDone := r.drainDone
	r.reset()
	r.mu.Unlock()

	if capture != nil {
		_ = capture.Stop()
		if drainDone != nil {
			<-drainDone
		}
		r.writeDebugAudio(capture.RawPCM())
	}
	return nil
}

// reset clears recording state; callers hold r.mu.
func (r *Recorder) reset() {
	r.started = false
	r.capture = nil
	r.drainDone = nil
}

// describeDevice formats device metadata for logs and session results.
func describeDevice(device audio.Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	if description == "" {
		return id
	}
	if id == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, id)
}

func (r *Recorder) logWarn(message string) {
	if r.logger == nil {
		return
	}
	r.logger.Warn(message)
}

// createDebugFile creates timestamped debug artifacts under state/speakflow/debug.
func createDebugFile(prefix string, extension string) (*os.File, error) {
	stateDir, err := resolveStateDir()
	if err != nil {
		return nil, err
	}
	debugDir := filepath.Join(stateDir, "speakflow", "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(debugDir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open debug file %q: %w", path, err)
	}
	return file, nil
}

// resolveStateDir returns the XDG_STATE_HOME fallback path for debug artifacts.
func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}

// writeDebugAudio writes raw PCM to WAV when debug.audio_dump is enabled.
func (r *Recorder) writeDebugAudio(rawPCM []byte) {
	if !r.cfg.Debug.EnableAudioDump || len(rawPCM) == 0 {
		return
	}

	file, err := createDebugFile("audio", "wav")
	if err != nil {
		r.logWarn(fmt.Sprintf("unable to create debug audio dump: %v", err))
		return
	}
	defer file.Close()

	if _, err := file.Write(audio.EncodeWAV(rawPCM)); err != nil {
		r.logWarn(fmt.Sprintf("unable to write debug audio dump: %v", err))
	}
}
