// Package app wires command dispatch, config, logging, and the session
// runtime together behind one Execute entrypoint.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/danielladerman/speakflow/internal/api"
	"github.com/danielladerman/speakflow/internal/audio"
	"github.com/danielladerman/speakflow/internal/cli"
	"github.com/danielladerman/speakflow/internal/config"
	"github.com/danielladerman/speakflow/internal/doctor"
	"github.com/danielladerman/speakflow/internal/indicator"
	"github.com/danielladerman/speakflow/internal/ipc"
	"github.com/danielladerman/speakflow/internal/logging"
	"github.com/danielladerman/speakflow/internal/pipeline"
	"github.com/danielladerman/speakflow/internal/poller"
	"github.com/danielladerman/speakflow/internal/report"
	"github.com/danielladerman/speakflow/internal/ritual"
	"github.com/danielladerman/speakflow/internal/session"
	"github.com/danielladerman/speakflow/internal/storage"
	"github.com/danielladerman/speakflow/internal/version"
)

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// StorePath overrides the state store location; tests use it.
	StorePath string
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdin: os.Stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("speakflow"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("speakflow"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	storePath := r.StorePath
	if storePath == "" {
		storePath, err = storage.DefaultPath()
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: resolve state path: %v\n", err)
			return 1
		}
	}
	store := storage.NewFileStore(storePath)
	tokens := storage.Tokens{Store: store}

	cfg := cfgLoaded.Config
	client := api.New(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSec)*time.Second, tokens, logger)

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		diag := doctor.Run(ctx, cfgLoaded, client, tokens)
		fmt.Fprintln(r.Stdout, diag.String())
		if diag.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, "stop")
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, "cancel")
	case cli.CommandRecord:
		return r.commandRecord(ctx, parsed, cfg, logger, client, store)
	case cli.CommandSessions:
		return r.commandSessions(ctx, parsed, client)
	case cli.CommandReport:
		return r.commandReport(ctx, parsed, client, store)
	case cli.CommandLogin:
		return r.commandLogin(ctx, client)
	case cli.CommandRegister:
		return r.commandRegister(ctx, client)
	case cli.CommandLogout:
		return r.commandLogout(client)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, "status")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active speakflow session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// commandRecord runs one full practice session. A second `record` while a
// session is active acts as stop, matching push-to-talk muscle memory.
func (r Runner) commandRecord(
	ctx context.Context,
	parsed cli.Parsed,
	cfg config.Config,
	logger *slog.Logger,
	client *api.Client,
	store storage.Store,
) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, "toggle")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.Message != "" {
			fmt.Fprintln(r.Stdout, resp.Message)
		}
		return 0
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			resp, _, forwardErr := tryForward(ctx, socketPath, "toggle")
			if forwardErr != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", forwardErr)
				return 1
			}
			if resp.Message != "" {
				fmt.Fprintln(r.Stdout, resp.Message)
			}
			return 0
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	if cfg.Ritual.Enable && !parsed.NoRitual {
		if err := r.runRitual(ctx, cfg.Ritual); err != nil {
			fmt.Fprintln(r.Stdout, "cancelled")
			return 0
		}
	}

	recorder := pipeline.NewRecorder(cfg, logger)
	uploader := session.UploadFunc(func(ctx context.Context, clip session.Clip) (string, error) {
		created, err := client.CreateSession(ctx, clip.WAV, clip.ContentType)
		if err != nil {
			return "", err
		}
		return created.SessionID, nil
	})
	waiter := session.AwaitFunc(func(ctx context.Context, sessionID string, onStatus func(api.Status)) (report.Report, error) {
		p := poller.Poller{
			Status: client.GetStatus,
			Fetch: func(ctx context.Context, sessionID string) (report.Report, error) {
				full, err := client.GetReport(ctx, sessionID)
				if err != nil {
					return report.Report{}, err
				}
				return full.Report(), nil
			},
			Interval:    time.Duration(cfg.Poll.IntervalMS) * time.Millisecond,
			MaxAttempts: cfg.Poll.MaxAttempts,
		}
		return p.Await(ctx, sessionID, onStatus)
	})
	notifier := indicator.NewTerminal(cfg.Notify, r.Stderr, logger)
	controller := session.NewController(logger, recorder, uploader, waiter, notifier)

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	result := controller.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logSessionResult(logger, result)

	if result.SessionID != "" {
		if err := store.Set(storage.KeyLastSessionID, result.SessionID); err != nil {
			logger.Warn("persist last session id failed", "error", err.Error())
		}
	}

	if result.Cancelled {
		fmt.Fprintln(r.Stdout, "cancelled")
		return 0
	}
	if result.Err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		if errors.Is(result.Err, poller.ErrTimeout) && result.SessionID != "" {
			fmt.Fprintf(r.Stderr, "session %s is still processing; run `speakflow report` once it finishes\n", result.SessionID)
		}
		return 1
	}

	if result.Report != nil {
		report.Render(r.Stdout, *result.Report)
	}
	controller.Acknowledge()
	return 0
}

// runRitual prints the breathing countdown on stderr so stdout stays
// reserved for the report.
func (r Runner) runRitual(ctx context.Context, cfg config.RitualConfig) error {
	breath := ritual.New(cfg)
	err := breath.Run(ctx, func(step ritual.Step, remaining time.Duration) {
		fmt.Fprintf(r.Stderr, "\r\x1b[2K%s %d ", step.Label(), int(remaining/time.Second))
	})
	fmt.Fprintln(r.Stderr)
	return err
}

func (r Runner) commandSessions(ctx context.Context, parsed cli.Parsed, client *api.Client) int {
	sessions, err := client.ListSessions(ctx, parsed.Limit, 0)
	if err != nil {
		return r.apiFailure(err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(r.Stdout, "no sessions yet")
		return 0
	}

	for _, s := range sessions {
		line := fmt.Sprintf("%s  %-10s  %5.1fs", s.SessionID, s.Status, s.DurationSec)
		if s.CreatedAt != "" {
			line += "  " + s.CreatedAt
		}
		if s.Status == api.StatusFailed && s.ErrorMessage != "" {
			line += "  " + s.ErrorMessage
		}
		fmt.Fprintln(r.Stdout, line)
	}
	return 0
}

func (r Runner) commandReport(ctx context.Context, parsed cli.Parsed, client *api.Client, store storage.Store) int {
	sessionID := parsed.SessionID
	if sessionID == "" {
		stored, err := store.Get(storage.KeyLastSessionID)
		if err != nil {
			fmt.Fprintln(r.Stderr, "error: no session id given and no previous session on record")
			return 1
		}
		sessionID = stored
	}

	full, err := client.GetReport(ctx, sessionID)
	if err != nil {
		if api.IsNotFound(err) {
			fmt.Fprintf(r.Stderr, "error: session %s not found or not finished yet\n", sessionID)
			return 1
		}
		return r.apiFailure(err)
	}

	report.Render(r.Stdout, full.Report())
	return 0
}

func (r Runner) commandLogin(ctx context.Context, client *api.Client) int {
	reader := bufio.NewReader(r.Stdin)

	email, err := prompt(reader, r.Stderr, "Email: ")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	password, err := prompt(reader, r.Stderr, "Password: ")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if err := client.Login(ctx, email, password); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			fmt.Fprintln(r.Stderr, "error: invalid email or password")
			return 1
		}
		return r.apiFailure(err)
	}

	fmt.Fprintln(r.Stdout, "logged in")
	return 0
}

func (r Runner) commandRegister(ctx context.Context, client *api.Client) int {
	reader := bufio.NewReader(r.Stdin)

	email, err := prompt(reader, r.Stderr, "Email: ")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	password, err := prompt(reader, r.Stderr, "Password: ")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	displayName, err := prompt(reader, r.Stderr, "Display name (optional): ")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if _, err := client.Register(ctx, email, password, displayName); err != nil {
		return r.apiFailure(err)
	}

	fmt.Fprintln(r.Stdout, "account created; run `speakflow login`")
	return 0
}

func (r Runner) commandLogout(client *api.Client) int {
	if err := client.Logout(); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, "logged out")
	return 0
}

// apiFailure prints API errors with a login hint for auth failures.
func (r Runner) apiFailure(err error) int {
	if errors.Is(err, api.ErrUnauthorized) {
		fmt.Fprintln(r.Stderr, "error: not logged in; run `speakflow login`")
		return 1
	}
	fmt.Fprintf(r.Stderr, "error: %v\n", err)
	return 1
}

func prompt(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", result.State,
		"cancelled", result.Cancelled,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"audio_device", result.AudioDevice,
		"audio_duration_ms", result.AudioDuration.Milliseconds(),
		"bytes_uploaded", result.BytesUploaded,
		"session_id", result.SessionID,
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
