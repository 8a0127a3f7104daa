// Package openai adapts the OpenAI chat completions API to the provider contracts.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	log "github.com/sirupsen/logrus"

	"github.com/ann82/dv-assistant-sub003/internal/provider"
)

// Config selects the model and endpoint.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client implements provider.LLM.
type Client struct {
	client *goopenai.Client
	model  string
}

// New builds a client; BaseURL is optional.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = "gpt-4o-mini"
		log.Warn("[openai] OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	log.Infof("[openai] initializing client, model=%s", modelName)
	return &Client{client: goopenai.NewClientWithConfig(clientCfg), model: modelName}, nil
}

func (c *Client) Generate(ctx context.Context, messages []*schema.Message, opts provider.GenerateOptions) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toChatMessages(messages),
	}
	if opts.Temperature > 0 {
		req.Temperature = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.MaxCompletionTokens = opts.MaxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("openai generate: no choices returned")
	}
	log.Debugf("[openai] completion finish_reason=%s", resp.Choices[0].FinishReason)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Classify constrains the answer with a strict JSON schema whose label field is an enum of labels.
func (c *Client) Classify(ctx context.Context, prompt string, labels []string) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: "Classify the user's text. Choose exactly one of the allowed labels."},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
				Name:   "label_choice",
				Schema: labelSchema(labels),
				Strict: true,
			},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai classify: no choices returned")
	}
	return provider.MatchLabel(resp.Choices[0].Message.Content, labels)
}

func labelSchema(labels []string) *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"label": {
				Type: jsonschema.String,
				Enum: labels,
			},
		},
		Required:             []string{"label"},
		AdditionalProperties: false,
	}
}

func toChatMessages(messages []*schema.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		role := goopenai.ChatMessageRoleUser
		switch msg.Role {
		case schema.System:
			role = goopenai.ChatMessageRoleSystem
		case schema.Assistant:
			role = goopenai.ChatMessageRoleAssistant
		}
		out = append(out, goopenai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return out
}
