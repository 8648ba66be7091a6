// Package vision sends screen captures to a Gemini model and returns the
// text answer.
package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultTimeout bounds one Analyze call when the caller's context has no
// deadline.
const DefaultTimeout = 90 * time.Second

const imageMIMEType = "image/png"

var (
	// ErrNoAPIKey is returned by NewClient when no key is configured.
	ErrNoAPIKey = errors.New("gemini api key is not configured")
	// ErrNoImages is returned by Analyze when images is empty.
	ErrNoImages = errors.New("no images to analyze")
	// ErrEmptyResponse is returned when the model answers without text.
	ErrEmptyResponse = errors.New("model returned no text")
)

// Analyzer is the surface the capture worker depends on.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string, images [][]byte) (string, error)
	Model() string
}

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client calls the Gemini API through the official SDK.
type Client struct {
	model   string
	timeout time.Duration
	models  contentGenerator
}

// NewClient creates a Gemini API client for model.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("gemini model is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newClientWithGenerator(model, gc.Models), nil
}

func newClientWithGenerator(model string, models contentGenerator) *Client {
	return &Client{model: model, timeout: DefaultTimeout, models: models}
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string { return c.model }

// Analyze sends prompt followed by every PNG in images as one user turn and
// returns the concatenated text parts of the first candidate.
func (c *Client) Analyze(ctx context.Context, prompt string, images [][]byte) (string, error) {
	if len(images) == 0 {
		return "", ErrNoImages
	}
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, &genai.Part{Text: prompt})
	for _, img := range images {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: img, MIMEType: imageMIMEType}})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	started := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content with %s: %w", c.model, err)
	}
	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	slog.Debug("[DEBUG-VISION] analysis complete",
		"model", c.model, "images", len(images), "chars", len(text), "elapsed", time.Since(started))
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil {
			continue
		}
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}
