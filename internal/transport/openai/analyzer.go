package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
	"github.com/kailas-cloud/bookmarkd/internal/domain/analysis"
)

// AnalyzerSystemPrompt is sent ahead of every query.
const AnalyzerSystemPrompt = "Analyze the search query and extract key information."

// Defaults for the X.AI chat completions endpoint.
const (
	DefaultAnalyzerBaseURL = "https://api.x.ai/v1"
	DefaultAnalyzerModel   = "grok-beta"
)

// Analyzer interprets search queries through an OpenAI-compatible chat model.
// Each call makes a single attempt.
type Analyzer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// AnalyzerConfig holds the chat completion settings.
type AnalyzerConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewAnalyzer creates a query analyzer.
func NewAnalyzer(cfg *AnalyzerConfig) *Analyzer {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultAnalyzerBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultAnalyzerModel
	}
	return &Analyzer{
		client:  newClient(cfg.APIKey, baseURL, cfg.Timeout),
		model:   model,
		timeout: cfg.Timeout,
	}
}

// Analyze sends the query to the chat model. Any failure, including an empty
// reply, is reported as domain.ErrAnalyzerUnavailable.
func (a *Analyzer) Analyze(ctx context.Context, text string) (analysis.Analysis, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: AnalyzerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return analysis.Analysis{}, parseAPIError("analyzer", err, domain.ErrAnalyzerUnavailable)
	}
	if len(resp.Choices) == 0 {
		return analysis.Analysis{}, fmt.Errorf("analyzer returned no choices: %w", domain.ErrAnalyzerUnavailable)
	}

	model := resp.Model
	if model == "" {
		model = a.model
	}
	return analysis.Analysis{
		Model:            model,
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
