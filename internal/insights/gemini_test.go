package insights

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func narrativeJSON() string {
	return `{"strategicHealth":"Solid footing.","lowHangingFruit":"Ship product schema.","moonshot":"Own the lunchbox answer box.","confidence":0.8}`
}

// recordingDoer captures the outgoing request and answers with a canned
// narrative, so the composed URL can be checked without a live endpoint.
type recordingDoer struct {
	gotURL string
}

func (d *recordingDoer) Do(req *http.Request) (*http.Response, error) {
	d.gotURL = req.URL.String()
	resp := geminiResponse{}
	resp.Candidates = append(resp.Candidates, struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	}{
		Content: geminiContent{Parts: []geminiPart{{Text: narrativeJSON()}}},
	})
	payload, _ := json.Marshal(resp)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(string(payload))),
		Header:     make(http.Header),
	}, nil
}

func TestGeminiDefaultEndpointIsVersioned(t *testing.T) {
	p, err := NewGeminiProvider("test-key", "gemini-1.5-flash", 0)
	require.NoError(t, err)

	doer := &recordingDoer{}
	p.SetHTTPClient(doer)

	_, err = p.Generate(context.Background(), "prompt", Payload{})
	require.NoError(t, err)
	assert.Equal(t,
		"https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent",
		doer.gotURL)
}

func TestGeminiConfiguredTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	p, err := NewGeminiProvider("test-key", "", 50*time.Millisecond)
	require.NoError(t, err)
	p.SetBaseURL(server.URL)

	start := time.Now()
	_, err = p.Generate(context.Background(), "prompt", Payload{})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 300*time.Millisecond, "client timeout must cut the request short")
}

func TestGeminiGenerate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		resp := geminiResponse{}
		resp.Candidates = append(resp.Candidates, struct {
			Content      geminiContent `json:"content"`
			FinishReason string        `json:"finishReason"`
		}{
			Content: geminiContent{Parts: []geminiPart{{Text: narrativeJSON()}}},
		})
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p, err := NewGeminiProvider("test-key", "gemini-1.5-flash", 0)
	require.NoError(t, err)
	p.SetBaseURL(server.URL)
	p.SetHTTPClient(server.Client())

	n, err := p.Generate(context.Background(), "system prompt", Payload{SelectedNodeContext: "Global View"})
	require.NoError(t, err)

	assert.Equal(t, "/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.NotNil(t, gotBody.SystemInstruction)
	assert.Equal(t, "system prompt", gotBody.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "application/json", gotBody.GenerationConfig.ResponseMimeType)
	assert.Contains(t, gotBody.Contents[0].Parts[0].Text, "Global View")

	assert.Equal(t, "Solid footing.", n.StrategicHealth)
	assert.Equal(t, 0.8, n.Confidence)
}

func TestGeminiGenerateStripsCodeFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fenced := "```json\n" + narrativeJSON() + "\n```"
		resp := geminiResponse{}
		resp.Candidates = append(resp.Candidates, struct {
			Content      geminiContent `json:"content"`
			FinishReason string        `json:"finishReason"`
		}{
			Content: geminiContent{Parts: []geminiPart{{Text: fenced}}},
		})
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p, err := NewGeminiProvider("test-key", "", 0)
	require.NoError(t, err)
	p.SetBaseURL(server.URL)
	p.SetHTTPClient(server.Client())

	n, err := p.Generate(context.Background(), "prompt", Payload{})
	require.NoError(t, err)
	assert.Equal(t, "Ship product schema.", n.LowHangingFruit)
}

func TestGeminiGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	p, err := NewGeminiProvider("bad-key", "", 0)
	require.NoError(t, err)
	p.SetBaseURL(server.URL)
	p.SetHTTPClient(server.Client())

	_, err = p.Generate(context.Background(), "prompt", Payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestGeminiGenerateNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiResponse{})
	}))
	defer server.Close()

	p, err := NewGeminiProvider("test-key", "", 0)
	require.NoError(t, err)
	p.SetBaseURL(server.URL)
	p.SetHTTPClient(server.Client())

	_, err = p.Generate(context.Background(), "prompt", Payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestNewGeminiProviderRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider("", "model", 0)
	require.Error(t, err)
}

func TestDecodeNarrativeClampsConfidence(t *testing.T) {
	n, err := decodeNarrative(`{"strategicHealth":"ok","confidence":1.7}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, n.Confidence)

	n, err = decodeNarrative(`{"strategicHealth":"ok","confidence":-0.2}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, n.Confidence)
}
