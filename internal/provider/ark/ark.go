// Package ark adapts an eino chat model (Volcengine Ark by default) to the
// provider contracts.
package ark

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	log "github.com/sirupsen/logrus"

	"github.com/ann82/dv-assistant-sub003/internal/provider"
)

// Client implements provider.LLM on top of an eino chat model.
type Client struct {
	chatModel  model.BaseChatModel
	classifier compose.Runnable[map[string]any, *schema.Message]
}

// New compiles the classification chain around chatModel.
func New(ctx context.Context, chatModel model.BaseChatModel) (*Client, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifySystemPrompt),
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile classifier chain: %w", err)
	}

	return &Client{chatModel: chatModel, classifier: runnable}, nil
}

// Generate runs a single completion.
func (c *Client) Generate(ctx context.Context, messages []*schema.Message, opts provider.GenerateOptions) (string, error) {
	var options []model.Option
	if opts.MaxTokens > 0 {
		options = append(options, model.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		options = append(options, model.WithTemperature(opts.Temperature))
	}

	msg, err := c.chatModel.Generate(ctx, messages, options...)
	if err != nil {
		return "", fmt.Errorf("ark generate: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("ark generate: empty completion")
	}
	return strings.TrimSpace(msg.Content), nil
}

// Classify asks for a JSON object naming one label, then validates it.
func (c *Client) Classify(ctx context.Context, promptText string, labels []string) (string, error) {
	input := map[string]any{
		"labels": strings.Join(labels, ", "),
		"prompt": strings.TrimSpace(promptText),
	}

	msg, err := c.classifier.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("ark classify: %w", err)
	}
	if msg == nil {
		return "", fmt.Errorf("ark classify: empty completion")
	}

	label, err := provider.MatchLabel(msg.Content, labels)
	if err != nil {
		log.Debugf("[ark] classifier answered %q", msg.Content)
		return "", err
	}
	return label, nil
}

const classifySystemPrompt = "You are a strict classifier. Read the user's text and choose exactly one label from this list: {labels}.\n" +
	"Reply with only a JSON object that has a single key named label whose value is the chosen label. No other text."
