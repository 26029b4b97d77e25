// Package config resolves, parses, validates, and defaults speakflow
// configuration.
package config

// Config is the fully materialized runtime configuration used by speakflow.
type Config struct {
	API    APIConfig
	Poll   PollConfig
	Audio  AudioConfig
	Ritual RitualConfig
	Notify NotifyConfig
	Debug  DebugConfig
}

// APIConfig controls how the client reaches the analysis service.
type APIConfig struct {
	BaseURL    string
	TimeoutSec int
}

// PollConfig controls completion polling cadence and patience.
type PollConfig struct {
	IntervalMS  int
	MaxAttempts int
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// RitualConfig controls the pre-recording breathing countdown.
type RitualConfig struct {
	Enable    bool
	InhaleSec int
	HoldSec   int
	ExhaleSec int
	Cycles    int
}

// NotifyConfig controls terminal status output and audio cues.
type NotifyConfig struct {
	Color       bool
	SoundEnable bool
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
