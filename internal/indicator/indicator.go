// Package indicator renders session phase feedback in the terminal and
// plays short audio cues on phase changes.
package indicator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/danielladerman/speakflow/internal/api"
	"github.com/danielladerman/speakflow/internal/config"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorBlue   = "\x1b[34m"
	clearLine   = "\r\x1b[2K"
)

// Terminal is the concrete notifier used by runtime sessions. It keeps a
// single status line updated in place.
type Terminal struct {
	cfg      config.NotifyConfig
	out      io.Writer
	logger   *slog.Logger
	messages messages

	mu         sync.Mutex
	lineActive bool
	soundMu    sync.Mutex
}

// NewTerminal creates a terminal notifier writing to out.
func NewTerminal(cfg config.NotifyConfig, out io.Writer, logger *slog.Logger) *Terminal {
	return &Terminal{
		cfg:      cfg,
		out:      out,
		logger:   logger,
		messages: notifierMessagesFromEnv(),
	}
}

// ShowRecording signals recording start and emits the start cue.
func (t *Terminal) ShowRecording(context.Context) {
	t.playCue(cueStart)
	t.status(colorRed, "●", t.messages.recording)
}

// ShowUploading signals that the clip is on its way to the server.
func (t *Terminal) ShowUploading(context.Context) {
	t.playCue(cueStop)
	t.status(colorBlue, "↑", t.messages.uploading)
}

// ShowProcessing refreshes the status line on every poll attempt.
func (t *Terminal) ShowProcessing(_ context.Context, status api.Status) {
	t.status(colorYellow, "…", fmt.Sprintf("%s (%s)", t.messages.processing, status))
}

// ShowResults signals that the coaching report is ready.
func (t *Terminal) ShowResults(context.Context) {
	t.playCue(cueComplete)
	t.status(colorGreen, "✓", t.messages.ready)
}

// ShowError displays an error-state message.
func (t *Terminal) ShowError(_ context.Context, text string) {
	t.playCue(cueCancel)
	if text == "" {
		text = t.messages.errorText
	}
	t.status(colorRed, "✗", text)
}

// Hide finishes the status line so later output starts clean.
func (t *Terminal) Hide(context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.lineActive {
		return
	}
	t.lineActive = false
	fmt.Fprintln(t.out)
}

// status rewrites the single status line in place.
func (t *Terminal) status(color string, glyph string, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lineActive = true

	if t.cfg.Color {
		fmt.Fprintf(t.out, "%s%s%s%s %s", clearLine, color, glyph, colorReset, text)
		return
	}
	fmt.Fprintf(t.out, "%s%s %s", clearLine, glyph, text)
}

// playCue serializes cue playback and emits audio asynchronously.
func (t *Terminal) playCue(kind cueKind) {
	if !t.cfg.SoundEnable {
		return
	}
	go func() {
		t.soundMu.Lock()
		defer t.soundMu.Unlock()
		if err := emitCue(kind); err != nil {
			t.log("audio cue failed", err)
		}
	}()
}

func (t *Terminal) log(message string, err error) {
	if t.logger == nil || err == nil {
		return
	}
	t.logger.Debug(message, "error", err.Error())
}
