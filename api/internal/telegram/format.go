package telegram

import (
	"strconv"
	"strings"

	"patrol-ai/api/internal/inspect/types"
)

const (
	maxMessageRunes = 3900
	barCells        = 10

	// Model text is clipped before escaping so the HTML stays well-formed;
	// together these keep a message under maxMessageRunes.
	maxDescriptionRunes    = 1400
	maxRecommendationRunes = 1000
	maxIssues              = 10
	maxIssueRunes          = 100
)

// FormatResult renders an assessment as a Telegram HTML message.
func FormatResult(r types.AssessmentResult) string {
	st := r.Status.Display()
	sv := r.Severity.Display()

	var b strings.Builder
	b.WriteString(st.Icon + " <b>" + esc(st.Label) + "</b>\n")
	b.WriteString("ระดับความรุนแรง: " + sv.Icon + " " + esc(sv.Label) + "\n")
	b.WriteString("ความมั่นใจ: " + strconv.FormatFloat(r.Confidence, 'f', -1, 64) + "% ")
	b.WriteString(confidenceBar(r.ConfidencePercent()) + "\n")

	if len(r.DetectedIssues) > 0 {
		b.WriteString("\n<b>ปัญหาที่พบ</b>\n")
		for i, issue := range r.DetectedIssues {
			if i == maxIssues {
				b.WriteString("• …\n")
				break
			}
			b.WriteString("• " + esc(truncate(issue, maxIssueRunes)) + "\n")
		}
	}
	b.WriteString("\n<b>รายละเอียด</b>\n" + esc(truncate(r.Description, maxDescriptionRunes)) + "\n")
	b.WriteString("\n<b>ข้อแนะนำ</b>\n" + esc(truncate(r.Recommendation, maxRecommendationRunes)))
	return b.String()
}

// FormatError renders the user-facing failure notice.
func FormatError(msg string) string {
	return "⚠️ " + esc(msg)
}

func confidenceBar(pct float64) string {
	filled := int(pct/100*barCells + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", barCells-filled)
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "…"
}
