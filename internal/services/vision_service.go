package services

import (
	"context"
	"sync"

	"motormart/internal/common"

	"google.golang.org/genai"
)

// VisionClient abstracts the generative-AI provider used for image
// analysis. Implementations must be safe for concurrent use.
type VisionClient interface {
	// AnalyzeImage sends one image plus an instruction and returns the
	// model's raw text response.
	AnalyzeImage(ctx context.Context, data []byte, mimeType, prompt string) (string, error)
}

type geminiVision struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiVision builds a Gemini-backed VisionClient. The API key is
// checked per call, not here, so a misconfigured deployment fails with a
// configuration error at analysis time instead of at startup.
func NewGeminiVision(apiKey, model string) VisionClient {
	return &geminiVision{apiKey: apiKey, model: model}
}

func (g *geminiVision) connect(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, common.NewUpstreamError("failed to initialize Gemini client", err)
	}
	g.client = client
	return client, nil
}

func (g *geminiVision) AnalyzeImage(ctx context.Context, data []byte, mimeType, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", common.NewConfigError("Gemini API key is not configured")
	}

	client, err := g.connect(ctx)
	if err != nil {
		return "", err
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(data, mimeType),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", common.NewUpstreamError("Gemini API error", err)
	}
	return resp.Text(), nil
}
