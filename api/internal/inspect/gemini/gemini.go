package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"patrol-ai/api/internal/inspect"
	"patrol-ai/api/internal/inspect/prompt"
	"patrol-ai/api/internal/inspect/types"
	"patrol-ai/api/internal/util"
)

const DefaultModel = "gemini-2.5-flash"

// generator is the part of *genai.GenerativeModel the engine calls.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Engine talks to Gemini through the generative-ai-go SDK. One client is
// built at start-up and shared by every session.
type Engine struct {
	Model  string
	client *genai.Client
	gen    generator
}

func New(ctx context.Context, apiKey, model string) (*Engine, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	m := cl.GenerativeModel(model)
	if m == nil {
		_ = cl.Close()
		return nil, errors.New("gemini: model is nil")
	}
	configure(m)
	return &Engine{Model: model, client: cl, gen: m}, nil
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

// configure pins the reply to a JSON document matching the assessment schema.
func configure(m *genai.GenerativeModel) {
	m.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   ResponseSchema(),
	}
}

// Analyze sends one generateContent request: the image blob followed by the
// inspection instruction.
func (e *Engine) Analyze(ctx context.Context, image []byte, mime string) (types.AssessmentResult, error) {
	if e.gen == nil {
		return types.AssessmentResult{}, inspect.Fail(e.Name(), inspect.StageRequest, errors.New("engine is not initialised"))
	}
	parts := []genai.Part{
		genai.Blob{MIMEType: util.PickMIME(mime, "", image), Data: image},
		genai.Text(prompt.Instruction),
	}

	resp, err := e.gen.GenerateContent(ctx, parts...)
	if err != nil {
		return types.AssessmentResult{}, inspect.Fail(e.Name(), inspect.StageTransport, err)
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return types.AssessmentResult{}, inspect.Fail(e.Name(), inspect.StageEmpty, types.ErrEmptyReply)
	}
	out, err := types.DecodeAssessment(txt)
	if err != nil {
		return types.AssessmentResult{}, inspect.Fail(e.Name(), inspect.StageDecode, err)
	}
	return out, nil
}

// ResponseSchema is prompt.Schema expressed with genai types.
func ResponseSchema() *genai.Schema {
	str := func(field string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: prompt.FieldDescriptions[field]}
	}
	enum := func(field string, values []string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeString,
			Format:      "enum",
			Enum:        values,
			Description: prompt.FieldDescriptions[field],
		}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			types.FieldStatus:   enum(types.FieldStatus, prompt.StatusValues()),
			types.FieldSeverity: enum(types.FieldSeverity, prompt.SeverityValues()),
			types.FieldConfidence: {
				Type:        genai.TypeNumber,
				Description: prompt.FieldDescriptions[types.FieldConfidence],
			},
			types.FieldDescription:    str(types.FieldDescription),
			types.FieldRecommendation: str(types.FieldRecommendation),
			types.FieldDetectedIssues: {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: prompt.FieldDescriptions[types.FieldDetectedIssues],
			},
		},
		Required: types.RequiredFields(),
	}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}
