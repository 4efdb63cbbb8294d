// Package analysis wraps the generative-model call that estimates nutrition
// content from a meal photo or description.
//
// The request carries a fixed instructional prompt demanding a JSON-only
// response; the parser strips code fences and defaults every field rather
// than trusting the model's shape. Nothing is retried — the caller surfaces
// failures directly to the user.
package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/caltrack/caltrack/internal/apperror"
	"github.com/caltrack/caltrack/internal/model"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-1.5-flash"
)

// Request is one analysis input: free text or an encoded JPEG, plus the
// target output language.
type Request struct {
	Text     string
	Image    []byte
	Language string
}

// Analyzer is the model-call contract the tracker service depends on.
type Analyzer interface {
	Analyze(ctx context.Context, apiKey string, req Request) (model.NutritionRecord, error)
}

// Client calls the Gemini generateContent REST endpoint. The credential is
// per-call, not per-client, because it is user state: a user-supplied key
// replaces the deployment's shared one at any time.
type Client struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

var _ Analyzer = (*Client)(nil)

// generateContent request/response wire shapes, reduced to the fields used.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze runs one model call and parses the result into a normalized
// nutrition record. Fails with ErrUninitialized when no credential is
// configured and ErrAnalysis for transport, refusal and parse failures.
func (c *Client) Analyze(ctx context.Context, apiKey string, req Request) (model.NutritionRecord, error) {
	var rec model.NutritionRecord

	if apiKey == "" {
		return rec, apperror.Uninitialized()
	}

	parts := []part{{Text: systemPrompt(req.Language)}}
	if len(req.Image) > 0 {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(req.Image),
		}})
	} else {
		parts = append(parts, part{Text: req.Text})
	}

	payload, err := json.Marshal(generateRequest{Contents: []content{{Parts: parts}}})
	if err != nil {
		return rec, apperror.Analysis(fmt.Sprintf("encoding request: %v", err))
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	modelName := c.Model
	if modelName == "" {
		modelName = defaultModel
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", baseURL, modelName, apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return rec, apperror.Analysis(fmt.Sprintf("creating request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return rec, apperror.Analysis(fmt.Sprintf("model call failed: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return rec, apperror.Analysis(fmt.Sprintf("reading response: %v", err))
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return rec, apperror.Analysis(fmt.Sprintf("model returned status %d", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return rec, apperror.Analysis(parsed.Error.Message)
		}
		return rec, apperror.Analysis(fmt.Sprintf("model returned status %d", resp.StatusCode))
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return rec, apperror.Analysis("model returned no candidates")
	}

	return parseRecord(parsed.Candidates[0].Content.Parts[0].Text)
}
