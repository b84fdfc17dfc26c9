package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func newGeminiCaller(client *http.Client, apiKey, model, baseURL string) CallFunc {
	target := fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, url.PathEscape(model))

	return func(ctx context.Context, prompt string) (string, error) {
		data, err := json.Marshal(geminiRequest{
			Contents: []geminiContent{
				{Role: "user", Parts: []geminiPart{{Text: prompt}}},
			},
		})
		if err != nil {
			return "", fmt.Errorf("marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", apiKey)

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("gemini request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("read response: %w", err)
		}

		var result geminiResponse
		if err := json.Unmarshal(body, &result); err != nil {
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(body))
			}
			return "", fmt.Errorf("unmarshal response: %w", err)
		}

		if result.Error != nil {
			return "", fmt.Errorf("gemini error (%s): %s", result.Error.Status, result.Error.Message)
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(body))
		}

		if len(result.Candidates) == 0 {
			if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
				return "", fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyResponse, result.PromptFeedback.BlockReason)
			}
			return "", fmt.Errorf("%w: gemini returned no candidates", ErrEmptyResponse)
		}

		var text strings.Builder
		for _, part := range result.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}

		return text.String(), nil
	}
}
