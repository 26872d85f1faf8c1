package inspect

import (
	"context"
	"errors"
	"strings"

	"patrol-ai/api/internal/inspect/types"
)

// Engine asks an inference service for an insulator assessment.
// Implementations send exactly one request per call and report every
// failure as *AnalysisError.
type Engine interface {
	Name() string
	GetModel() string
	Analyze(ctx context.Context, image []byte, mime string) (types.AssessmentResult, error)
}

type Engines struct {
	SDK  Engine
	REST Engine
}

func (e *Engines) GetEngine(name string) (Engine, error) {
	var eng Engine
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sdk", "gemini":
		eng = e.SDK
	case "rest", "http":
		eng = e.REST
	default:
		return nil, errors.New("unknown transport; use 'sdk' or 'rest'")
	}
	if eng == nil {
		return nil, errors.New("transport " + name + " is not configured")
	}
	return eng, nil
}
