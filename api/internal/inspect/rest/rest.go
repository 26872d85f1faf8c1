package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"patrol-ai/api/internal/inspect"
	"patrol-ai/api/internal/inspect/prompt"
	"patrol-ai/api/internal/inspect/types"
	"patrol-ai/api/internal/util"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Engine calls generateContent over plain HTTPS with the image inlined as
// base64. Useful behind proxies that do not pass the SDK's transport.
type Engine struct {
	APIKey  string
	Model   string
	BaseURL string
	httpc   *http.Client
}

func New(key, model, baseURL string) *Engine {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Engine{
		APIKey:  strings.TrimSpace(key),
		Model:   strings.TrimSpace(model),
		BaseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Engine) Name() string     { return "gemini-rest" }
func (e *Engine) GetModel() string { return e.Model }

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// buildRequest assembles the generateContent body for one image.
func buildRequest(image []byte, mime string) generateRequest {
	return generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{
					MimeType: util.PickMIME(mime, "", image),
					Data:     util.EncodeBase64(image),
				}},
				{Text: prompt.Instruction},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   prompt.Schema(),
		},
	}
}

func (e *Engine) Analyze(ctx context.Context, image []byte, mime string) (types.AssessmentResult, error) {
	if e.APIKey == "" {
		return types.AssessmentResult{}, inspect.Fail(e.Name(), inspect.StageRequest, errors.New("GEMINI_API_KEY is empty"))
	}
	payload, err := json.Marshal(buildRequest(image, mime))
	if err != nil {
		return types.AssessmentResult{}, inspect.Fail(e.Name(), inspect.StageRequest, err)
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		e.BaseURL, url.PathEscape(e.Model), url.QueryEscape(e.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return types.AssessmentResult{}, inspect.Fail(e.Name(), inspect.StageRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpc.Do(req)
	if err != nil {
		return types.AssessmentResult{}, inspect.Fail(e.Name(), inspect.StageTransport, redactKey(err, e.APIKey))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return types.AssessmentResult{}, inspect.Fail(e.Name(), inspect.StageTransport,
			fmt.Errorf("gemini %d: %s", resp.StatusCode, strings.TrimSpace(string(x))))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return types.AssessmentResult{}, inspect.Fail(e.Name(), inspect.StageDecode, fmt.Errorf("envelope: %w", err))
	}
	var txt strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			txt.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(txt.String()) == "" {
		return types.AssessmentResult{}, inspect.Fail(e.Name(), inspect.StageEmpty, types.ErrEmptyReply)
	}

	r, err := types.DecodeAssessment(txt.String())
	if err != nil {
		return types.AssessmentResult{}, inspect.Fail(e.Name(), inspect.StageDecode, err)
	}
	return r, nil
}

// redactKey keeps the API key out of logged *url.Error messages.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
