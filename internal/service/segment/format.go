package segment

import (
	"fmt"
	"math"
	"strings"

	"speech-digest-service/internal/models"
)

// FormatTranscript renders one "[MM:SS] speaker: text" line per segment, separated by a
// blank line. Minutes are not wrapped at 60, so 100 minutes renders as "[100:00]".
func FormatTranscript(tr models.Transcript) string {
	lines := make([]string, 0, len(tr.Segments))
	for _, s := range tr.Segments {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", FormatTimestamp(s.Start), s.Speaker, s.Text))
	}
	return strings.Join(lines, "\n\n")
}

// FormatTimestamp truncates seconds to a whole second and renders MM:SS.
func FormatTimestamp(seconds float64) string {
	total := wholeSeconds(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatDuration renders a recording length as M:SS, or H:MM:SS from one hour up.
func FormatDuration(seconds float64) string {
	total := wholeSeconds(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func wholeSeconds(seconds float64) int64 {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	return int64(seconds)
}
