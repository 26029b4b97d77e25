package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localeEnglish locale = "en"
)

type messages struct {
	recording  string
	uploading  string
	processing string
	ready      string
	errorText  string
}

func notifierMessagesFromEnv() messages {
	return notifierMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "en") {
		return localeEnglish
	}
	return localeEnglish
}

func notifierMessages(tag locale) messages {
	switch tag {
	case localeEnglish:
		fallthrough
	default:
		return messages{
			recording:  "Recording… press stop when you finish speaking",
			uploading:  "Uploading recording…",
			processing: "Analyzing",
			ready:      "Coaching report ready",
			errorText:  "Session failed",
		}
	}
}
