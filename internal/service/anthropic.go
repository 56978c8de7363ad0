package service

import (
	"context"
	"errors"
	"strings"

	"hero-tracker/internal/config"
	"hero-tracker/internal/constants"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const analysisSystemPrompt = "You are an esports analyst for a mobile MOBA. " +
	"You ground every claim in the statistics given to you and do not invent numbers. " +
	"Return strict JSON only, no prose around it."

var errBackendDisabled = errors.New("generative backend not configured")

// Generator produces raw generative output for a prompt. The analysis
// service treats it as unreliable and wraps it in retry and fallback.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// AnthropicMessager matches the message-creation surface of the
// Anthropic SDK so tests can substitute a fake.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicGenerator struct {
	messages AnthropicMessager
	model    string
}

// NewGenerator builds the configured backend. Without an API key the
// service still works: every request resolves to the templated
// fallback.
func NewGenerator(cfg *config.Config) Generator {
	if cfg.AnthropicAPIKey == "" {
		return disabledGenerator{}
	}
	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey))
	return &AnthropicGenerator{messages: &client.Messages, model: cfg.AnalysisModel}
}

func (g *AnthropicGenerator) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.GenerativeTimeout)
	defer cancel()

	resp, err := g.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   constants.AnalysisMaxTokens,
		System:      []anthropic.TextBlockParam{{Text: analysisSystemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

type disabledGenerator struct{}

func (disabledGenerator) GenerateJSON(context.Context, string) (string, error) {
	return "", errBackendDisabled
}
