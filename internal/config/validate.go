package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	base := strings.TrimSpace(cfg.API.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("api.base_url must not be empty")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("api.base_url must be an http(s) URL")
	}
	if cfg.API.TimeoutSec <= 0 {
		return nil, fmt.Errorf("api.timeout_sec must be > 0")
	}

	if cfg.Poll.IntervalMS <= 0 {
		return nil, fmt.Errorf("poll.interval_ms must be > 0")
	}
	if cfg.Poll.IntervalMS < 250 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("poll.interval_ms=%d is aggressive; the server is polled every %dms", cfg.Poll.IntervalMS, cfg.Poll.IntervalMS)})
	}
	if cfg.Poll.MaxAttempts <= 0 {
		return nil, fmt.Errorf("poll.max_attempts must be > 0")
	}

	if cfg.Ritual.Enable {
		if cfg.Ritual.InhaleSec <= 0 {
			return nil, fmt.Errorf("ritual.inhale_sec must be > 0 when ritual.enable=true")
		}
		if cfg.Ritual.ExhaleSec <= 0 {
			return nil, fmt.Errorf("ritual.exhale_sec must be > 0 when ritual.enable=true")
		}
		if cfg.Ritual.HoldSec < 0 {
			return nil, fmt.Errorf("ritual.hold_sec must be >= 0")
		}
		if cfg.Ritual.Cycles <= 0 {
			return nil, fmt.Errorf("ritual.cycles must be > 0 when ritual.enable=true")
		}
	}

	return warnings, nil
}
