package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Render writes the full report as user-facing terminal text.
func Render(w io.Writer, r Report) {
	fmt.Fprintf(w, "session %s (%.1fs)\n", r.SessionID, r.DurationSec)

	if r.Scores != nil {
		renderScores(w, *r.Scores)
	}
	if r.Coaching != nil {
		renderCoaching(w, *r.Coaching)
	}
	if len(r.Transcript) > 0 {
		fmt.Fprintf(w, "\nTranscript:\n  %s\n", AssembleTranscript(r.Transcript))
	}
}

func renderScores(w io.Writer, sc ScoreContract) {
	fmt.Fprintf(w, "\nScores (overall %d):\n", sc.Scores.Overall)
	rows := []struct {
		label string
		score int
	}{
		{"pace", sc.Scores.Pace},
		{"fluency", sc.Scores.Fluency},
		{"clarity", sc.Scores.Clarity},
		{"vocal variety", sc.Scores.VocalVariety},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "  %-14s %3d  %s\n", row.label, row.score, scoreBar(row.score))
	}

	fmt.Fprintf(w, "  focus: %s\n", sc.FocusMetric)
	fmt.Fprintf(w, "  %.0f wpm, %.1f fillers/min, %d pauses (%d power)\n",
		sc.Metrics.WPM, sc.Metrics.FillerPerMin, sc.Metrics.PauseEvents, sc.Metrics.PowerPauses)

	if len(sc.Flags) > 0 {
		fmt.Fprintln(w, "  flagged moments:")
		flags := append([]Flag(nil), sc.Flags...)
		sort.Slice(flags, func(i, j int) bool { return flags[i].TStart < flags[j].TStart })
		for _, flag := range flags {
			fmt.Fprintf(w, "    %6.1fs-%.1fs  %s\n", flag.TStart, flag.TEnd, flagLabel(flag.Reason))
		}
	}
}

func renderCoaching(w io.Writer, c CoachingResponse) {
	fmt.Fprintf(w, "\nCoaching:\n  %s\n", c.Summary)

	if len(c.Strengths) > 0 {
		fmt.Fprintln(w, "  strengths:")
		for _, s := range c.Strengths {
			fmt.Fprintf(w, "    + [%s] %s\n", s.Area, s.Observation)
		}
	}

	fmt.Fprintf(w, "  focus area: %s (%d -> %d)\n", c.FocusArea.Area, c.FocusArea.CurrentScore, c.FocusArea.TargetScore)
	if c.FocusArea.Observation != "" {
		fmt.Fprintf(w, "    %s\n", c.FocusArea.Observation)
	}
	if c.FocusArea.Impact != "" {
		fmt.Fprintf(w, "    %s\n", c.FocusArea.Impact)
	}

	if len(c.RecommendedDrills) > 0 {
		fmt.Fprintln(w, "  drills:")
		drills := append([]RecommendedDrill(nil), c.RecommendedDrills...)
		sort.Slice(drills, func(i, j int) bool { return drills[i].Priority < drills[j].Priority })
		for _, d := range drills {
			fmt.Fprintf(w, "    %d. %s: %s\n", d.Priority, d.DrillID, d.Reason)
		}
	}

	if c.NextSessionGoal != "" {
		fmt.Fprintf(w, "  next session goal: %s\n", c.NextSessionGoal)
	}
}

// scoreBar renders a 20-cell bar for a 0-100 score.
func scoreBar(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	filled := score / 5
	return strings.Repeat("#", filled) + strings.Repeat(".", 20-filled)
}

func flagLabel(reason FlagReason) string {
	switch reason {
	case FlagFiller:
		return "filler word"
	case FlagLongPause:
		return "long pause"
	case FlagRush:
		return "rushed passage"
	case FlagMumble:
		return "unclear articulation"
	case FlagPowerPause:
		return "power pause"
	default:
		return string(reason)
	}
}
