package llm

import (
	"context"
)

type openaiProvider struct {
	transport
	apiKey  string
	model   string
	baseURL string
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiJSONSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

type openaiResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *openaiJSONSchema `json:"json_schema,omitempty"`
}

type openaiRequest struct {
	Model          string                `json:"model"`
	Messages       []openaiMessage       `json:"messages"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *openaiResponseFormat `json:"response_format,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *openaiProvider) Complete(ctx context.Context, req Request) (string, error) {
	body := openaiRequest{
		Model:    o.model,
		Messages: []openaiMessage{{Role: "user", Content: req.Prompt}},
	}
	if req.Schema != nil {
		body.ResponseFormat = &openaiResponseFormat{
			Type:       "json_schema",
			JSONSchema: &openaiJSONSchema{Name: "response", Schema: req.Schema},
		}
	}

	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}

	var or openaiResponse
	if err := o.postJSON(ctx, o.baseURL+"/chat/completions", headers, body, &or); err != nil {
		return "", err
	}
	if len(or.Choices) == 0 || or.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return or.Choices[0].Message.Content, nil
}
