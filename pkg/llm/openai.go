package llm

import (
	"context"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"
)

func newOpenAICaller(client *http.Client, apiKey, model, baseURL string) CallFunc {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = client
	c := goopenai.NewClientWithConfig(cfg)

	return func(ctx context.Context, prompt string) (string, error) {
		resp, err := c.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
			Model: model,
			Messages: []goopenai.ChatCompletionMessage{
				{Role: goopenai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return "", fmt.Errorf("openai request: %w", err)
		}

		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("%w: openai returned no choices", ErrEmptyResponse)
		}

		return resp.Choices[0].Message.Content, nil
	}
}
