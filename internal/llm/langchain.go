package llm

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// LangChainClient sends completions through langchaingo's OpenAI provider.
type LangChainClient struct {
	opts Options
	url  string
	llm  llms.Model
}

// NewLangChainClient creates a langchaingo-backed client for one persona.
func NewLangChainClient(opts Options) (*LangChainClient, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}

	model, err := openai.New(
		openai.WithToken(opts.APIKey.Value()),
		openai.WithBaseURL(base),
		openai.WithModel(opts.Model),
	)
	if err != nil {
		return nil, err
	}

	return &LangChainClient{opts: opts, url: base + "/chat/completions", llm: model}, nil
}

// Model returns the model identifier sent with every request.
func (c *LangChainClient) Model() string {
	return c.opts.Model
}

// Complete sends messages and returns the first choice's content.
func (c *LangChainClient) Complete(ctx context.Context, messages []Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.MessageContent{
			Role:  chatRole(m.Role),
			Parts: []llms.ContentPart{llms.TextContent{Text: m.Content}},
		})
	}

	return call(ctx, &c.opts, "llm.complete", c.url, func(ctx context.Context) (string, error) {
		resp, err := c.llm.GenerateContent(ctx, content, llms.WithTemperature(c.opts.Temperature))
		if err != nil {
			return "", err
		}
		if resp == nil || len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Content, nil
	})
}

func chatRole(role string) schema.ChatMessageType {
	switch role {
	case RoleSystem:
		return schema.ChatMessageTypeSystem
	case RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}

var _ Client = (*LangChainClient)(nil)
