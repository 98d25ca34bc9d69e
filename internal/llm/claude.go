package llm

import (
	"context"
	"encoding/json"
	"strings"
)

type claudeProvider struct {
	transport
	apiKey  string
	model   string
	baseURL string
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete embeds the schema in the prompt; the messages API has no JSON mode.
func (c *claudeProvider) Complete(ctx context.Context, req Request) (string, error) {
	prompt := req.Prompt
	if req.Schema != nil {
		schema, err := json.Marshal(req.Schema)
		if err != nil {
			return "", err
		}
		prompt += "\n\nRespond with a single JSON object matching this JSON schema and nothing else:\n" + string(schema)
	}

	body := claudeRequest{
		Model:     c.model,
		MaxTokens: 512,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var cr claudeResponse
	if err := c.postJSON(ctx, c.baseURL+"/messages", headers, body, &cr); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range cr.Content {
		if block.Type == "" || block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
