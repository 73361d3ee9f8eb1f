package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/raphaelgruber/chatmem-go/internal/config"
)

// Model wraps a langchaingo LLM as a Gateway.
type Model struct {
	llm      llms.Model
	provider string
	timeout  time.Duration
}

// NewModel creates a gateway for the configured provider.
func NewModel(cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.DefaultModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.DefaultModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.DefaultModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:      model,
		provider: string(cfg.LLMProvider),
		timeout:  cfg.LLMTimeout,
	}, nil
}

// Name returns the provider name.
func (m *Model) Name() string {
	return m.provider
}

// Invoke submits the message list and normalizes the result to a Response.
// Calls are bounded by the configured timeout so a hung provider cannot hang
// the turn.
func (m *Model) Invoke(ctx context.Context, model string, messages []ChatMessage) (Response, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.TextParts(chatMessageType(msg.Role), msg.Content))
	}

	var opts []llms.CallOption
	if model != "" {
		opts = append(opts, llms.WithModel(model))
	}

	resp, err := m.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return Response{}, wrapFatalError(fmt.Errorf("generate: %w", err))
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("no response choices")
	}
	if len(resp.Choices) > 1 {
		parts := make([]string, 0, len(resp.Choices))
		for _, choice := range resp.Choices {
			parts = append(parts, choice.Content)
		}
		return PartsResponse(parts), nil
	}
	return TextResponse(resp.Choices[0].Content), nil
}

func chatMessageType(role string) llms.ChatMessageType {
	switch role {
	case "system":
		return llms.ChatMessageTypeSystem
	case "assistant":
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
