package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/babybento/aeo-command/internal/pkg/httpretry"
	"github.com/babybento/aeo-command/internal/pkg/logger"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider calls the Gemini generateContent API. The generation
// config pins the response mime type to JSON so the narrative can be
// decoded directly.
type GeminiProvider struct {
	apiKey     string
	model      string
	baseURL    string
	timeout    time.Duration
	httpClient httpretry.HTTPDoer
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiSystemInstruction struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"response_mime_type,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent          `json:"contents"`
	SystemInstruction *geminiSystemInstruction `json:"system_instruction,omitempty"`
	GenerationConfig  geminiGenerationConfig   `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// NewGeminiProvider creates a provider for the given key and model. A zero
// timeout falls back to 30 seconds.
func NewGeminiProvider(apiKey, model string, timeout time.Duration) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := &http.Client{Timeout: timeout}
	return &GeminiProvider{
		apiKey:     apiKey,
		model:      model,
		baseURL:    geminiBaseURL,
		timeout:    timeout,
		httpClient: httpretry.NewRetryClient(base, 2),
	}, nil
}

// SetBaseURL overrides the API endpoint (useful for testing).
func (p *GeminiProvider) SetBaseURL(u string) {
	p.baseURL = u
}

// SetHTTPClient replaces the underlying HTTP client (useful for testing).
func (p *GeminiProvider) SetHTTPClient(c httpretry.HTTPDoer) {
	p.httpClient = c
}

// Generate sends the sanitized payload to Gemini and decodes the
// narrative from the first candidate.
func (p *GeminiProvider) Generate(ctx context.Context, systemPrompt string, payload Payload) (Narrative, error) {
	// Bound the whole call, retries included, by the configured timeout
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return Narrative{}, fmt.Errorf("gemini: marshaling payload: %w", err)
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: "Current dashboard payload:\n" + string(payloadJSON)}},
			},
		},
		SystemInstruction: &geminiSystemInstruction{
			Parts: []geminiPart{{Text: systemPrompt}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.4,
			ResponseMimeType: "application/json",
			MaxOutputTokens:  1024,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return Narrative{}, fmt.Errorf("gemini: marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Narrative{}, fmt.Errorf("gemini: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Narrative{}, fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Narrative{}, fmt.Errorf("gemini: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.Warn("gemini API error", "status", resp.StatusCode, "model", p.model)
		return Narrative{}, fmt.Errorf("gemini: API returned status %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Narrative{}, fmt.Errorf("gemini: parsing response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return Narrative{}, fmt.Errorf("gemini: response contained no candidates")
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	logger.Debug("gemini narrative generated",
		"model", p.model,
		"prompt_tokens", parsed.UsageMetadata.PromptTokenCount,
		"output_tokens", parsed.UsageMetadata.CandidatesTokenCount)

	return decodeNarrative(text.String())
}
