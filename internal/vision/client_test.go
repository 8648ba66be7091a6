package vision

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/genai"
)

type fakeGenerator struct {
	model    string
	contents []*genai.Content
	deadline bool
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	_, f.deadline = ctx.Deadline()
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestAnalyzeBuildsOneUserTurn(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("Answer: ", "B ")}
	c := newClientWithGenerator("gemini-2.5-flash", gen)

	got, err := c.Analyze(context.Background(), "solve", [][]byte{[]byte("png1"), []byte("png2")})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got != "Answer: B" {
		t.Fatalf("Analyze() = %q, want %q", got, "Answer: B")
	}
	if gen.model != "gemini-2.5-flash" {
		t.Fatalf("model = %q", gen.model)
	}
	if !gen.deadline {
		t.Fatal("request context has no deadline, want DefaultTimeout applied")
	}
	if len(gen.contents) != 1 || gen.contents[0].Role != "user" {
		t.Fatalf("contents = %+v, want one user turn", gen.contents)
	}
	parts := gen.contents[0].Parts
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want prompt + 2 images", len(parts))
	}
	if parts[0].Text != "solve" {
		t.Fatalf("first part = %+v, want prompt text", parts[0])
	}
	for i, p := range parts[1:] {
		if p.InlineData == nil || p.InlineData.MIMEType != "image/png" {
			t.Fatalf("image part %d = %+v, want image/png inline data", i, p)
		}
	}
	if string(parts[2].InlineData.Data) != "png2" {
		t.Fatalf("image order not preserved: %q", parts[2].InlineData.Data)
	}
}

func TestAnalyzeKeepsCallerDeadline(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("ok")}
	c := newClientWithGenerator("m", gen)
	c.timeout = 0

	if _, err := c.Analyze(context.Background(), "p", [][]byte{{1}}); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if gen.deadline {
		t.Fatal("deadline added with zero timeout")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := c.Analyze(ctx, "p", [][]byte{{1}}); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !gen.deadline {
		t.Fatal("caller deadline lost")
	}
}

func TestAnalyzeErrors(t *testing.T) {
	apiErr := errors.New("429 resource exhausted")
	tests := []struct {
		name   string
		gen    *fakeGenerator
		images [][]byte
		want   error
	}{
		{name: "no images", gen: &fakeGenerator{}, images: nil, want: ErrNoImages},
		{name: "api error wrapped", gen: &fakeGenerator{err: apiErr}, images: [][]byte{{1}}, want: apiErr},
		{name: "nil response", gen: &fakeGenerator{}, images: [][]byte{{1}}, want: ErrEmptyResponse},
		{name: "no candidates", gen: &fakeGenerator{resp: &genai.GenerateContentResponse{}}, images: [][]byte{{1}}, want: ErrEmptyResponse},
		{name: "blank text", gen: &fakeGenerator{resp: textResponse("  ", "\n")}, images: [][]byte{{1}}, want: ErrEmptyResponse},
		{
			name:   "candidate without content",
			gen:    &fakeGenerator{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
			images: [][]byte{{1}},
			want:   ErrEmptyResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClientWithGenerator("m", tt.gen)
			if _, err := c.Analyze(context.Background(), "p", tt.images); !errors.Is(err, tt.want) {
				t.Fatalf("Analyze() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(context.Background(), "  ", "gemini-2.5-flash"); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("NewClient(blank key) error = %v, want ErrNoAPIKey", err)
	}
	if _, err := NewClient(context.Background(), "key", " "); err == nil {
		t.Fatal("NewClient(blank model) error = nil, want error")
	}
}
