// Package report models the analysis payload returned for a completed
// session and renders it for terminal display.
package report

// FocusMetric is a skill area named by the scoring service.
type FocusMetric string

const (
	FocusPace         FocusMetric = "pace"
	FocusFluency      FocusMetric = "fluency"
	FocusClarity      FocusMetric = "clarity"
	FocusVocalVariety FocusMetric = "vocal_variety"
	FocusStructure    FocusMetric = "structure"
	FocusConfidence   FocusMetric = "confidence"
)

// FlagReason is the type of a flagged moment in the recording.
type FlagReason string

const (
	FlagFiller     FlagReason = "filler"
	FlagLongPause  FlagReason = "long_pause"
	FlagRush       FlagReason = "rush"
	FlagMumble     FlagReason = "mumble"
	FlagPowerPause FlagReason = "power_pause"
)

// Metrics holds raw extracted measurements from audio analysis.
type Metrics struct {
	WPM             float64 `json:"wpm"`
	FillerPerMin    float64 `json:"filler_per_min"`
	PauseEvents     int     `json:"pause_events"`
	PowerPauses     int     `json:"power_pauses"`
	PitchVariance   float64 `json:"pitch_variance"`
	VolumeStability float64 `json:"volume_stability"`
}

// Scores holds computed 0-100 scores derived from metrics.
type Scores struct {
	Pace         int `json:"pace"`
	Fluency      int `json:"fluency"`
	Clarity      int `json:"clarity"`
	VocalVariety int `json:"vocal_variety"`
	Overall      int `json:"overall"`
}

// Flag is a timestamped event of note (filler, long pause, etc.).
type Flag struct {
	TStart float64    `json:"t_start"`
	TEnd   float64    `json:"t_end"`
	Reason FlagReason `json:"reason"`
}

// ScoreContract is the canonical analysis result shape produced by the
// scoring service. The client passes it through unmodified.
type ScoreContract struct {
	SessionID   string      `json:"session_id"`
	DurationSec float64     `json:"duration_sec"`
	Metrics     Metrics     `json:"metrics"`
	Scores      Scores      `json:"scores"`
	FocusMetric FocusMetric `json:"focus_metric"`
	Flags       []Flag      `json:"flags"`
}

// Strength is an area where the speaker performed well.
type Strength struct {
	Area        FocusMetric `json:"area"`
	Observation string      `json:"observation"`
}

// FocusArea is the primary improvement target selected by the coach.
type FocusArea struct {
	Area         FocusMetric `json:"area"`
	CurrentScore int         `json:"current_score"`
	TargetScore  int         `json:"target_score"`
	Observation  string      `json:"observation"`
	Impact       string      `json:"impact"`
}

// RecommendedDrill references a drill from the drill library.
type RecommendedDrill struct {
	DrillID  string `json:"drill_id"`
	Reason   string `json:"reason"`
	Priority int    `json:"priority"`
}

// CoachingResponse is the coach-generated interpretation of the scores.
type CoachingResponse struct {
	SessionID         string             `json:"session_id"`
	Summary           string             `json:"summary"`
	Strengths         []Strength         `json:"strengths"`
	FocusArea         FocusArea          `json:"focus_area"`
	RecommendedDrills []RecommendedDrill `json:"recommended_drills"`
	NextSessionGoal   string             `json:"next_session_goal"`
}

// Word is one word-level transcript entry with timing.
type Word struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Report is the full terminal payload for one completed session.
type Report struct {
	SessionID   string            `json:"session_id"`
	DurationSec float64           `json:"duration_sec"`
	AudioURL    string            `json:"audio_url,omitempty"`
	Scores      *ScoreContract    `json:"score_contract"`
	Coaching    *CoachingResponse `json:"coaching_response"`
	Transcript  []Word            `json:"transcript"`
}
