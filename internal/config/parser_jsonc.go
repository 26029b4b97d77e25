package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	API    *jsoncAPI    `json:"api"`
	Poll   *jsoncPoll   `json:"poll"`
	Audio  *jsoncAudio  `json:"audio"`
	Ritual *jsoncRitual `json:"ritual"`
	Notify *jsoncNotify `json:"notify"`
	Debug  *jsoncDebug  `json:"debug"`
}

type jsoncAPI struct {
	BaseURL    *string `json:"base_url"`
	TimeoutSec *int    `json:"timeout_sec"`
}

type jsoncPoll struct {
	IntervalMS  *int `json:"interval_ms"`
	MaxAttempts *int `json:"max_attempts"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncRitual struct {
	Enable    *bool `json:"enable"`
	InhaleSec *int  `json:"inhale_sec"`
	HoldSec   *int  `json:"hold_sec"`
	ExhaleSec *int  `json:"exhale_sec"`
	Cycles    *int  `json:"cycles"`
}

type jsoncNotify struct {
	Color       *bool `json:"color"`
	SoundEnable *bool `json:"sound_enable"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	payload.applyTo(&cfg)

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, validatedWarnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) {
	if payload.API != nil {
		if payload.API.BaseURL != nil {
			cfg.API.BaseURL = strings.TrimSpace(*payload.API.BaseURL)
		}
		if payload.API.TimeoutSec != nil {
			cfg.API.TimeoutSec = *payload.API.TimeoutSec
		}
	}

	if payload.Poll != nil {
		if payload.Poll.IntervalMS != nil {
			cfg.Poll.IntervalMS = *payload.Poll.IntervalMS
		}
		if payload.Poll.MaxAttempts != nil {
			cfg.Poll.MaxAttempts = *payload.Poll.MaxAttempts
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.Ritual != nil {
		if payload.Ritual.Enable != nil {
			cfg.Ritual.Enable = *payload.Ritual.Enable
		}
		if payload.Ritual.InhaleSec != nil {
			cfg.Ritual.InhaleSec = *payload.Ritual.InhaleSec
		}
		if payload.Ritual.HoldSec != nil {
			cfg.Ritual.HoldSec = *payload.Ritual.HoldSec
		}
		if payload.Ritual.ExhaleSec != nil {
			cfg.Ritual.ExhaleSec = *payload.Ritual.ExhaleSec
		}
		if payload.Ritual.Cycles != nil {
			cfg.Ritual.Cycles = *payload.Ritual.Cycles
		}
	}

	if payload.Notify != nil {
		if payload.Notify.Color != nil {
			cfg.Notify.Color = *payload.Notify.Color
		}
		if payload.Notify.SoundEnable != nil {
			cfg.Notify.SoundEnable = *payload.Notify.SoundEnable
		}
	}

	if payload.Debug != nil && payload.Debug.AudioDump != nil {
		cfg.Debug.EnableAudioDump = *payload.Debug.AudioDump
	}
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' || ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
