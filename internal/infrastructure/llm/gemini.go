// Package llm adapts the Gemini API to the domain.LanguageModel port.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/verre/backend/internal/domain"
)

const defaultTimeout = 30 * time.Second

// GeminiClient wraps the GenAI client
type GeminiClient struct {
	genaiClient  *genai.Client
	defaultModel string
	timeout      time.Duration
	logger       *zap.Logger
}

// NewGeminiClient creates a connected client. defaultModel is used when a
// completion does not name one.
func NewGeminiClient(ctx context.Context, apiKey, defaultModel string, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, domain.ErrMissingAPIKey
	}

	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, eris.Wrap(err, "failed to create AI client")
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &GeminiClient{
		genaiClient:  c,
		defaultModel: defaultModel,
		timeout:      timeout,
		logger:       zap.L().Named("llm"),
	}, nil
}

// Close terminates the connection
func (c *GeminiClient) Close() {
	if c.genaiClient != nil {
		c.genaiClient.Close()
	}
}

// Complete sends one prompt (plus optional images) and returns the text of
// the first candidate
func (c *GeminiClient) Complete(ctx context.Context, req domain.Completion) (string, error) {
	name := req.Model
	if name == "" {
		name = c.defaultModel
	}

	model := c.genaiClient.GenerativeModel(name)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	resp, err := model.GenerateContent(ctx, buildParts(req)...)
	if err != nil {
		c.logger.Warn("generate content failed", zap.String("model", name), zap.Error(err))
		return "", eris.Wrapf(domain.ErrUpstream, "generate content: %v", err)
	}
	c.logger.Debug("generate content", zap.String("model", name), zap.Duration("took", time.Since(started)))

	text := responseText(resp)
	if text == "" {
		return "", domain.ErrNoResults
	}
	return text, nil
}

func buildParts(req domain.Completion) []genai.Part {
	parts := make([]genai.Part, 0, len(req.Images)+1)
	parts = append(parts, genai.Text(req.Prompt))
	for _, img := range req.Images {
		parts = append(parts, genai.Blob{MIMEType: img.MIMEType, Data: img.Data})
	}
	return parts
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}
