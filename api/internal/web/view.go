package web

import (
	"embed"
	"strconv"
	"time"

	"patrol-ai/api/internal/inspect/types"
	"patrol-ai/api/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

type pageView struct {
	State      string
	PreviewURL string
	Result     *resultView
	Error      string
	Year       int
}

type resultView struct {
	Status         types.StatusDisplay
	Severity       types.SeverityDisplay
	Confidence     string // as reported by the model
	BarWidth       string // clamped to [0,100]
	Issues         []string
	Description    string
	Recommendation string
}

func newPageView(s session.Snapshot, now time.Time) pageView {
	v := pageView{State: string(s.State), Error: s.ErrorMessage, Year: now.Year()}
	if s.PreviewID != "" {
		v.PreviewURL = "/preview/" + s.PreviewID
	}
	if s.State == session.StateResult && s.Result != nil {
		v.Result = newResultView(*s.Result)
	}
	return v
}

func newResultView(r types.AssessmentResult) *resultView {
	return &resultView{
		Status:         r.Status.Display(),
		Severity:       r.Severity.Display(),
		Confidence:     strconv.FormatFloat(r.Confidence, 'f', -1, 64),
		BarWidth:       strconv.FormatFloat(r.ConfidencePercent(), 'f', 1, 64) + "%",
		Issues:         r.DetectedIssues,
		Description:    r.Description,
		Recommendation: r.Recommendation,
	}
}
