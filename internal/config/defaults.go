package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:    "http://127.0.0.1:8000",
			TimeoutSec: 30,
		},
		Poll: PollConfig{
			IntervalMS:  1000,
			MaxAttempts: 120,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Ritual: RitualConfig{
			Enable:    true,
			InhaleSec: 4,
			HoldSec:   2,
			ExhaleSec: 4,
			Cycles:    1,
		},
		Notify: NotifyConfig{
			Color:       true,
			SoundEnable: true,
		},
		Debug: DebugConfig{},
	}
}
