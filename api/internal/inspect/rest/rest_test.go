package rest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patrol-ai/api/internal/inspect"
	"patrol-ai/api/internal/inspect/prompt"
	"patrol-ai/api/internal/inspect/types"
)

var png = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 1, 2, 3}

func envelope(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
		}},
	})
	return string(b)
}

func newServer(t *testing.T, status int, body string, hits *int32, check func(*http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyze_Success(t *testing.T) {
	var hits int32
	reply := `{"status":"BROKEN","severity":"HIGH","confidence":92,"description":"แตก","recommendation":"เปลี่ยน","detectedIssues":["รอยบิ่นที่ขอบ"]}`
	srv := newServer(t, http.StatusOK, envelope(reply), &hits, func(r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var body generateRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) || !assert.Len(t, body.Contents, 1) {
			return
		}
		parts := body.Contents[0].Parts
		if !assert.Len(t, parts, 2) || !assert.NotNil(t, parts[0].InlineData) {
			return
		}
		assert.Equal(t, "image/png", parts[0].InlineData.MimeType)
		raw, err := base64.StdEncoding.DecodeString(parts[0].InlineData.Data)
		assert.NoError(t, err)
		assert.Equal(t, png, raw)
		assert.Equal(t, prompt.Instruction, parts[1].Text)
		assert.Equal(t, "application/json", body.GenerationConfig.ResponseMimeType)
		assert.Equal(t, "OBJECT", body.GenerationConfig.ResponseSchema["type"])
	})

	e := New("secret", "gemini-2.5-flash", srv.URL)
	out, err := e.Analyze(context.Background(), png, "image/png")
	require.NoError(t, err)
	require.Equal(t, types.StatusBroken, out.Status)
	require.Equal(t, types.SeverityHigh, out.Severity)
	require.Equal(t, 92.0, out.Confidence)
	require.Equal(t, []string{"รอยบิ่นที่ขอบ"}, out.DetectedIssues)
	require.EqualValues(t, 1, hits)
}

func TestAnalyze_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		stage  inspect.Stage
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, inspect.StageTransport},
		{"quota", http.StatusTooManyRequests, `{"error":"quota"}`, inspect.StageTransport},
		{"bad envelope", http.StatusOK, `<html>`, inspect.StageDecode},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, inspect.StageEmpty},
		{"empty text", http.StatusOK, envelope(""), inspect.StageEmpty},
		{"text not json", http.StatusOK, envelope("ไม่สามารถวิเคราะห์ได้"), inspect.StageDecode},
		{"schema mismatch", http.StatusOK, envelope(`{"status":"BROKEN","severity":"HIGH"}`), inspect.StageDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := newServer(t, tt.status, tt.body, &hits, nil)
			e := New("secret", "m", srv.URL)

			_, err := e.Analyze(context.Background(), png, "image/png")
			require.ErrorIs(t, err, inspect.ErrAnalysisFailed)
			var ae *inspect.AnalysisError
			require.ErrorAs(t, err, &ae)
			require.Equal(t, tt.stage, ae.Stage)
			require.EqualValues(t, 1, hits, "exactly one request")
		})
	}
}

func TestAnalyze_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	e := New("secret", "m", srv.URL)
	_, err := e.Analyze(context.Background(), png, "image/png")
	require.ErrorIs(t, err, inspect.ErrAnalysisFailed)
	require.False(t, strings.Contains(err.Error(), "secret"))
}

func TestAnalyze_MissingKey(t *testing.T) {
	e := New("", "m", "")
	_, err := e.Analyze(context.Background(), png, "image/png")
	require.ErrorIs(t, err, inspect.ErrAnalysisFailed)
	require.Equal(t, DefaultBaseURL, e.BaseURL)
}
