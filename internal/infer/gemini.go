// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package infer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"

	"github.com/pdiddy/report-renamer/internal/cover"
	"github.com/pdiddy/report-renamer/internal/httputil"
	"github.com/pdiddy/report-renamer/pkg/types"
)

// inferencePromptTmpl is the prompt sent to the model for each cover.
// It pins the field names to the response schema and the example date
// format the filenames use.
var inferencePromptTmpl = template.Must(template.New("inference").Parse(`Analyze this research report cover page and extract the information needed to rename the file.
Respond with ONLY a raw JSON object (no markdown formatting) with these keys:
- "industry": the main industry application (e.g. AI, ADAS, Semi, DRAM, Auto, EV). Keep it short.
- "region": "WW" for worldwide/global coverage, "CN" for China. Default to "WW" if unclear but the report looks global.
- "title": comprehend the report content and produce a concise, impactful title in Traditional Chinese (繁體中文). It must NOT be URL-encoded.
- "institution": the research institution or bank as a short abbreviation (e.g. MS for Morgan Stanley, GS for Goldman Sachs, CICC).
- "date": the report date in YYMMDD format (e.g. 220625 for June 25, 2022).

Example response:
{"industry": "ADAS", "region": "WW", "title": "車載傳感器市場分析", "institution": "MS", "date": "220625"}
{{if .Text}}
Cover page text:
{{.Text}}{{else}}
The cover page is attached as an image.{{end}}
`))

// geminiEndpoint is the Gemini API base. Package-level var for test substitution.
var geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// GeminiBackend calls the Gemini generateContent API with the cover text
// and, when present, the rendered cover image as inline PNG data.
type GeminiBackend struct {
	APIKey     string
	Model      string
	Endpoint   string
	Client     *http.Client
	MaxRetries int
}

// NewGeminiBackend builds a GeminiBackend from the inference config.
func NewGeminiBackend(cfg types.InferenceConfig) *GeminiBackend {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiBackend{
		APIKey:     cfg.APIKey,
		Model:      model,
		Endpoint:   cfg.Endpoint,
		Client:     &http.Client{Timeout: cfg.Timeout},
		MaxRetries: cfg.MaxRetries,
	}
}

// geminiRequest is the request body for the generateContent API.
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

// geminiContent is one message in the request or response.
type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

// geminiPart is a text or inline-data block.
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

// geminiInlineData carries base64-encoded media.
type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// geminiGenerationConfig constrains the model's output.
type geminiGenerationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

// geminiResponse is the response body from the generateContent API.
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// geminiCandidate is one completion candidate.
type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

// Infer sends the cover to the Gemini API and returns the reply text.
func (g *GeminiBackend) Infer(ctx context.Context, c cover.Cover) (string, error) {
	prompt, err := renderPrompt(c.Text)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	parts := []geminiPart{{Text: prompt}}
	if len(c.ImagePNG) > 0 {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MIMEType: "image/png",
				Data:     base64.StdEncoding.EncodeToString(c.ImagePNG),
			},
		})
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMIMEType: "application/json",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = geminiEndpoint
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", endpoint, g.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, g.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Gemini API returned %d: %s", resp.StatusCode, string(body))
	}

	var gResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return "", fmt.Errorf("decoding Gemini response: %w", err)
	}

	if len(gResp.Candidates) == 0 {
		return "", fmt.Errorf("Gemini API returned no candidates")
	}

	var texts []string
	for _, part := range gResp.Candidates[0].Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("no text content in Gemini API response")
	}
	return strings.Join(texts, ""), nil
}

// renderPrompt executes the inference prompt template with the cover text.
func renderPrompt(coverText string) (string, error) {
	var buf bytes.Buffer
	if err := inferencePromptTmpl.Execute(&buf, struct{ Text string }{Text: coverText}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
