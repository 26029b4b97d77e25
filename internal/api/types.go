package api

import "github.com/danielladerman/speakflow/internal/report"

// Status is the server-authoritative processing state of a session. The
// client only observes it; from the client's standpoint it moves
// pending -> processing -> {completed|failed} and never backward.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Known reports whether the server returned a status value this client
// understands. Anything else is treated as a fatal local error rather
// than polled indefinitely.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status ends the polling loop.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CreateSessionResponse is returned after a successful audio upload.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Status    Status `json:"status"`
	Message   string `json:"message"`
}

// StatusResponse is the lightweight poll payload.
type StatusResponse struct {
	SessionID    string  `json:"session_id"`
	Status       Status  `json:"status"`
	DurationSec  float64 `json:"duration_sec"`
	ErrorMessage string  `json:"error_message"`
	CreatedAt    string  `json:"created_at"`
	CompletedAt  string  `json:"completed_at"`
}

// ReportResponse is the full session payload, fetched once per completed
// session.
type ReportResponse struct {
	SessionID   string                   `json:"session_id"`
	Status      Status                   `json:"status"`
	DurationSec float64                  `json:"duration_sec"`
	AudioURL    string                   `json:"audio_url"`
	Scores      *report.ScoreContract    `json:"score_contract"`
	Coaching    *report.CoachingResponse `json:"coaching_response"`
	Transcript  []report.Word            `json:"transcript"`
}

// Report converts the wire payload into the display model.
func (r ReportResponse) Report() report.Report {
	return report.Report{
		SessionID:   r.SessionID,
		DurationSec: r.DurationSec,
		AudioURL:    r.AudioURL,
		Scores:      r.Scores,
		Coaching:    r.Coaching,
		Transcript:  r.Transcript,
	}
}

// Token is the bearer credential returned by login/register flows.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterResponse is returned after account creation.
type RegisterResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Message     string `json:"message"`
}
