// Package doctor runs runtime readiness diagnostics for config, the
// analysis service, credentials, and audio capture.
package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielladerman/speakflow/internal/api"
	"github.com/danielladerman/speakflow/internal/audio"
	"github.com/danielladerman/speakflow/internal/config"
	"github.com/danielladerman/speakflow/internal/storage"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/service checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded, client *api.Client, tokens storage.Tokens) Report {
	checks := []Check{}

	configMessage := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMessage = fmt.Sprintf("%q not found; running on defaults", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMessage})
	for _, warning := range cfg.Warnings {
		checks = append(checks, Check{Name: "config", Pass: true, Message: warning.Message})
	}

	checks = append(checks, checkHealth(ctx, cfg.Config, client))
	checks = append(checks, checkToken(tokens))
	checks = append(checks, checkAudioSelection(ctx, cfg.Config))

	return Report{Checks: checks}
}

// checkHealth probes the analysis service health endpoint.
func checkHealth(ctx context.Context, cfg config.Config, client *api.Client) Check {
	if err := client.Health(ctx); err != nil {
		return Check{Name: "api.health", Pass: false, Message: err.Error()}
	}
	return Check{Name: "api.health", Pass: true, Message: fmt.Sprintf("healthy at %s", cfg.API.BaseURL)}
}

// checkToken reports whether a login token is stored.
func checkToken(tokens storage.Tokens) Check {
	token, err := tokens.Token()
	if err != nil {
		return Check{Name: "auth.token", Pass: false, Message: fmt.Sprintf("read token: %v", err)}
	}
	if strings.TrimSpace(token) == "" {
		return Check{Name: "auth.token", Pass: false, Message: "not logged in; run `speakflow login`"}
	}
	return Check{Name: "auth.token", Pass: true, Message: "login token present"}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}
