package inspect

import (
	"errors"
	"fmt"
)

// MsgAnalysisFailed is the only text users ever see for a failed analysis.
const MsgAnalysisFailed = "เกิดข้อผิดพลาดในการวิเคราะห์ภาพ กรุณาลองใหม่อีกครั้ง"

// ErrAnalysisFailed matches every *AnalysisError via errors.Is.
var ErrAnalysisFailed = errors.New("analysis failed")

// Stage tells where between request construction and decode an analysis broke.
type Stage string

const (
	StageRequest   Stage = "request"   // building the request
	StageTransport Stage = "transport" // network, status codes, SDK errors
	StageEmpty     Stage = "empty"     // no text in the reply
	StageDecode    Stage = "decode"    // reply does not match the schema
)

// AnalysisError is the single error kind of the inference client. Cause is
// for logs only.
type AnalysisError struct {
	Engine string
	Stage  Stage
	Cause  error
}

func Fail(engine string, stage Stage, cause error) *AnalysisError {
	return &AnalysisError{Engine: engine, Stage: stage, Cause: cause}
}

func (e *AnalysisError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: analysis failed at %s", e.Engine, e.Stage)
	}
	return fmt.Sprintf("%s: analysis failed at %s: %v", e.Engine, e.Stage, e.Cause)
}

func (e *AnalysisError) Unwrap() error { return e.Cause }

func (e *AnalysisError) Is(target error) bool { return target == ErrAnalysisFailed }

// UserMessage never exposes the cause.
func (e *AnalysisError) UserMessage() string { return MsgAnalysisFailed }

// AsAnalysisError normalises any engine error into *AnalysisError so callers
// handle one kind only.
func AsAnalysisError(engine string, err error) *AnalysisError {
	if err == nil {
		return nil
	}
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae
	}
	return Fail(engine, StageTransport, err)
}
