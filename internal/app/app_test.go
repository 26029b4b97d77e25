package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danielladerman/speakflow/internal/fsm"
	"github.com/danielladerman/speakflow/internal/ipc"
	"github.com/danielladerman/speakflow/internal/session"
)

func TestExecuteHelp(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"--help"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "Usage:")
	require.Empty(t, stderr.String())
}

func TestExecuteVersion(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"version"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "speakflow")
	require.Empty(t, stderr.String())
}

func TestExecuteUnknownCommand(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"definitely-not-a-command"}, &stdout, &stderr)
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "unknown command")
	require.Contains(t, stderr.String(), "Usage:")
}

func TestRunnerStatusIdleWhenSocketUnavailable(t *testing.T) {
	paths := setupRunnerEnv(t, "")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr, paths)

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "idle\n", stdout.String())
	require.Empty(t, stderr.String())
}

func TestRunnerStopReturnsNoActiveSession(t *testing.T) {
	paths := setupRunnerEnv(t, "")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr, paths)

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "stop"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "no active speakflow session")
}

func TestRunnerForwardsCommandsToActiveSession(t *testing.T) {
	paths := setupRunnerEnv(t, "")
	commands := make(chan string, 8)

	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "speakflow.sock"), func(_ context.Context, req ipc.Request) ipc.Response {
		commands <- req.Command
		switch req.Command {
		case "status":
			return ipc.Response{OK: true, State: "recording"}
		case "stop", "cancel", "toggle":
			return ipc.Response{OK: true, Message: req.Command + " handled"}
		default:
			return ipc.Response{OK: false, Error: "unsupported"}
		}
	})
	defer shutdown()

	for _, cmd := range []string{"status", "stop", "cancel", "record"} {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		runner := newTestRunner(stdout, stderr, paths)

		exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, cmd})
		require.Equal(t, 0, exitCode, cmd)
		require.Empty(t, stderr.String(), cmd)
	}

	// `record` against an active session forwards as toggle.
	got := []string{<-commands, <-commands, <-commands, <-commands}
	require.ElementsMatch(t, []string{"status", "stop", "cancel", "toggle"}, got)
}

func TestTryForwardSuccessAndFailureResponses(t *testing.T) {
	runtimeDir := t.TempDir()
	socketPath := filepath.Join(runtimeDir, "speakflow.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	serverCtx, cancelServer := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- ipc.Serve(serverCtx, listener, ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
			switch req.Command {
			case "status":
				return ipc.Response{OK: true, State: "recording"}
			default:
				return ipc.Response{OK: false, Error: "unsupported"}
			}
		}))
	}()

	resp, handled, err := tryForward(context.Background(), socketPath, "status")
	require.True(t, handled)
	require.NoError(t, err)
	require.Equal(t, "recording", resp.State)

	_, handled, err = tryForward(context.Background(), socketPath, "cancel")
	require.True(t, handled)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported")

	cancelServer()
	require.NoError(t, <-serverDone)
}

func TestTryForwardDoesNotRemoveSocketPathOnForwardFailure(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "speakflow.sock")
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o600))

	_, handled, err := tryForward(context.Background(), socketPath, "status")
	require.False(t, handled)
	require.NoError(t, err)

	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
}

func TestRunnerRecordOwnerPathReturnsErrorWhenCaptureStartupFails(t *testing.T) {
	paths := setupRunnerEnv(t, "")
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr, paths)

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "--no-ritual", "record"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "error:")

	// owner path should clean up runtime socket on exit
	_, statErr := os.Stat(filepath.Join(paths.runtimeDir, "speakflow.sock"))
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestRunnerSessionsListsServerPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/api/v1/sessions/", req.URL.Path)
		require.Equal(t, "5", req.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"session_id": "abc", "status": "completed", "duration_sec": 42.5},
			{"session_id": "def", "status": "failed", "error_message": "audio too short"},
		})
	}))
	t.Cleanup(server.Close)

	paths := setupRunnerEnv(t, server.URL)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr, paths)

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "--limit", "5", "sessions"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Contains(t, stdout.String(), "abc")
	require.Contains(t, stdout.String(), "completed")
	require.Contains(t, stdout.String(), "audio too short")
}

func TestRunnerReportUsesStoredSessionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/api/v1/sessions/last-123", req.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id":   "last-123",
			"status":       "completed",
			"duration_sec": 30.0,
		})
	}))
	t.Cleanup(server.Close)

	paths := setupRunnerEnv(t, server.URL)
	storeContent := `{"last_session_id": "last-123"}`
	require.NoError(t, os.WriteFile(paths.storePath, []byte(storeContent), 0o600))

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr, paths)

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "report"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Contains(t, stdout.String(), "last-123")
}

func TestRunnerReportWithoutHistoryFails(t *testing.T) {
	paths := setupRunnerEnv(t, "")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr, paths)

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "report"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "no previous session")
}

func TestRunnerLoginStoresToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/api/v1/auth/login/json", req.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
		require.Equal(t, "coach@example.com", payload["email"])
		require.Equal(t, "hunter2", payload["password"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "token_type": "bearer"})
	}))
	t.Cleanup(server.Close)

	paths := setupRunnerEnv(t, server.URL)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr, paths)
	runner.Stdin = strings.NewReader("coach@example.com\nhunter2\n")

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "login"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Contains(t, stdout.String(), "logged in")

	stored, err := os.ReadFile(paths.storePath)
	require.NoError(t, err)
	require.Contains(t, string(stored), "tok-1")
}

func TestRunnerLoginRejectsBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	paths := setupRunnerEnv(t, server.URL)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr, paths)
	runner.Stdin = strings.NewReader("coach@example.com\nwrong\n")

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "login"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "invalid email or password")
}

func TestRunnerLogoutClearsToken(t *testing.T) {
	paths := setupRunnerEnv(t, "")
	require.NoError(t, os.WriteFile(paths.storePath, []byte(`{"auth_token": "tok-1"}`), 0o600))

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr, paths)

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "logout"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Contains(t, stdout.String(), "logged out")

	stored, err := os.ReadFile(paths.storePath)
	require.NoError(t, err)
	require.NotContains(t, string(stored), "tok-1")
}

func TestSocketErrorHelpers(t *testing.T) {
	require.False(t, isSocketMissing(nil))
	require.False(t, isConnectionRefused(nil))

	require.True(t, isSocketMissing(os.ErrNotExist))
	require.True(t, isSocketMissing(errors.New("dial unix /tmp/speakflow.sock: no such file or directory")))
	require.False(t, isSocketMissing(errors.New("other error")))

	require.True(t, isConnectionRefused(syscall.ECONNREFUSED))
	require.False(t, isConnectionRefused(errors.New("other error")))
}

func TestLogSessionResultWritesFailureAndSuccess(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	started := time.Now()
	finished := started.Add(1500 * time.Millisecond)

	logSessionResult(logger, session.Result{
		State:         fsm.StateResults,
		Cancelled:     false,
		StartedAt:     started,
		FinishedAt:    finished,
		AudioDevice:   "Mic",
		AudioDuration: 3 * time.Second,
		BytesUploaded: 123,
		SessionID:     "abc",
	})

	require.Contains(t, logBuf.String(), "session complete")
	require.Contains(t, logBuf.String(), "\"session_id\":\"abc\"")

	logBuf.Reset()
	logSessionResult(logger, session.Result{
		State:      fsm.StateIdle,
		StartedAt:  started,
		FinishedAt: finished,
		Err:        errors.New("boom"),
	})
	require.Contains(t, logBuf.String(), "session failed")
	require.Contains(t, logBuf.String(), "boom")
}

type runnerPaths struct {
	configPath string
	runtimeDir string
	storePath  string
}

func newTestRunner(stdout, stderr *bytes.Buffer, paths runnerPaths) Runner {
	return Runner{
		Stdin:     strings.NewReader(""),
		Stdout:    stdout,
		Stderr:    stderr,
		StorePath: paths.storePath,
	}
}

// setupRunnerEnv isolates XDG paths and writes a minimal config. baseURL
// overrides the API endpoint when non-empty.
func setupRunnerEnv(t *testing.T, baseURL string) runnerPaths {
	t.Helper()

	xdgStateHome := t.TempDir()
	runtimeDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", xdgStateHome)
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	content := "\n"
	if baseURL != "" {
		content = `{"api": {"base_url": "` + baseURL + `"}}`
	}
	configPath := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return runnerPaths{
		configPath: configPath,
		runtimeDir: runtimeDir,
		storePath:  filepath.Join(t.TempDir(), "client.json"),
	}
}

func startIPCServerForRunnerTest(t *testing.T, socketPath string, handler func(context.Context, ipc.Request) ipc.Response) func() {
	t.Helper()

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ipc.Serve(ctx, listener, ipc.HandlerFunc(handler))
	}()

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}
