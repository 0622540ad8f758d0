package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/lawai/internal/model"
)

const openAISystemPrompt = `You map descriptions of incidents reported to the police to sections of Indian criminal law.
Reply with a single JSON object and nothing else, in this form:
{"caseHeading": "<short title for the case>", "acts": {"<section number>": "<section title>"}}
Use an empty "acts" object when no section applies. Never invent section numbers.`

// OpenAIInference answers queries with an OpenAI chat model. The reply is
// returned verbatim, so a model that ignores the JSON instruction degrades
// to free text in the normalizer instead of failing.
type OpenAIInference struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIInference creates the provider
func NewOpenAIInference(cfg model.InferenceConfig) (*OpenAIInference, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY)")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	m := cfg.Model
	if m == "" {
		m = openai.GPT4oMini
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 800
	}

	return &OpenAIInference{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     m,
		maxTokens: maxTokens,
	}, nil
}

// Name returns the provider name
func (o *OpenAIInference) Name() string {
	return "openai"
}

// Infer asks the model for a section map
func (o *OpenAIInference) Infer(ctx context.Context, query string) ([]byte, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openAISystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		MaxTokens:   o.maxTokens,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}

	return []byte(strings.TrimSpace(resp.Choices[0].Message.Content)), nil
}
