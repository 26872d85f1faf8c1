package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"patrol-ai/api/internal/util"
)

// Status is the insulator condition class.
type Status string

const (
	StatusNormal    Status = "NORMAL"
	StatusFlashover Status = "FLASHOVER"
	StatusBroken    Status = "BROKEN"
	StatusDirty     Status = "DIRTY"
	StatusCorrosion Status = "CORROSION"
	StatusUnclear   Status = "UNCLEAR"
)

// Statuses returns every allowed status in prompt order.
func Statuses() []Status {
	return []Status{StatusNormal, StatusFlashover, StatusBroken, StatusDirty, StatusCorrosion, StatusUnclear}
}

func (s Status) Valid() bool {
	switch s {
	case StatusNormal, StatusFlashover, StatusBroken, StatusDirty, StatusCorrosion, StatusUnclear:
		return true
	}
	return false
}

// Severity is the urgency of the corrective action, independent of Status.
type Severity string

const (
	SeverityNormal Severity = "NORMAL" // no action
	SeverityLow    Severity = "LOW"    // monitor
	SeverityMedium Severity = "MEDIUM" // plan a repair
	SeverityHigh   Severity = "HIGH"   // act immediately
)

// Severities returns every allowed severity in prompt order.
func Severities() []Severity {
	return []Severity{SeverityNormal, SeverityLow, SeverityMedium, SeverityHigh}
}

func (s Severity) Valid() bool {
	switch s {
	case SeverityNormal, SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// AssessmentResult is the structured answer of the inference service.
// Confidence is kept exactly as reported, see ConfidencePercent for display.
type AssessmentResult struct {
	Status         Status   `json:"status"`
	Severity       Severity `json:"severity"`
	Confidence     float64  `json:"confidence"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	DetectedIssues []string `json:"detectedIssues"`
}

// Field names of the output schema, in declaration order.
const (
	FieldStatus         = "status"
	FieldSeverity       = "severity"
	FieldConfidence     = "confidence"
	FieldDescription    = "description"
	FieldRecommendation = "recommendation"
	FieldDetectedIssues = "detectedIssues"
)

// RequiredFields lists the fields a reply must carry to be valid.
func RequiredFields() []string {
	return []string{FieldStatus, FieldSeverity, FieldConfidence, FieldDescription, FieldRecommendation, FieldDetectedIssues}
}

var (
	ErrEmptyReply     = errors.New("empty reply")
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidEnum    = errors.New("value outside enum")
	ErrMalformedReply = errors.New("malformed reply")
)

// wire mirrors AssessmentResult with pointers so absent fields can be told
// apart from zero values.
type wire struct {
	Status         *Status   `json:"status"`
	Severity       *Severity `json:"severity"`
	Confidence     *float64  `json:"confidence"`
	Description    *string   `json:"description"`
	Recommendation *string   `json:"recommendation"`
	DetectedIssues *[]string `json:"detectedIssues"`
}

// DecodeAssessment parses a service reply into an AssessmentResult.
// Code fences around the document are tolerated; everything else must match
// the output schema exactly.
func DecodeAssessment(raw string) (AssessmentResult, error) {
	txt := util.StripCodeFences(raw)
	if txt == "" {
		return AssessmentResult{}, ErrEmptyReply
	}

	var w wire
	if err := json.Unmarshal([]byte(txt), &w); err != nil {
		return AssessmentResult{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	var missing []string
	if w.Status == nil {
		missing = append(missing, FieldStatus)
	}
	if w.Severity == nil {
		missing = append(missing, FieldSeverity)
	}
	if w.Confidence == nil {
		missing = append(missing, FieldConfidence)
	}
	if w.Description == nil {
		missing = append(missing, FieldDescription)
	}
	if w.Recommendation == nil {
		missing = append(missing, FieldRecommendation)
	}
	if w.DetectedIssues == nil || *w.DetectedIssues == nil {
		missing = append(missing, FieldDetectedIssues)
	}
	if len(missing) > 0 {
		return AssessmentResult{}, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	if !w.Status.Valid() {
		return AssessmentResult{}, fmt.Errorf("%w: status=%q", ErrInvalidEnum, *w.Status)
	}
	if !w.Severity.Valid() {
		return AssessmentResult{}, fmt.Errorf("%w: severity=%q", ErrInvalidEnum, *w.Severity)
	}

	issues := make([]string, len(*w.DetectedIssues))
	copy(issues, *w.DetectedIssues)

	return AssessmentResult{
		Status:         *w.Status,
		Severity:       *w.Severity,
		Confidence:     *w.Confidence,
		Description:    *w.Description,
		Recommendation: *w.Recommendation,
		DetectedIssues: issues,
	}, nil
}

// ConfidencePercent clamps the reported confidence into [0,100] for widths
// and bars. The reported value itself is never altered.
func (r AssessmentResult) ConfidencePercent() float64 {
	switch {
	case r.Confidence < 0:
		return 0
	case r.Confidence > 100:
		return 100
	}
	return r.Confidence
}
