package llm

import (
	"context"
	"fmt"
	"strings"
)

type geminiProvider struct {
	transport
	apiKey  string
	model   string
	baseURL string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64        `json:"temperature"`
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *geminiProvider) Complete(ctx context.Context, req Request) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
	}
	if req.Schema != nil {
		body.GenerationConfig.ResponseMimeType = "application/json"
		body.GenerationConfig.ResponseSchema = toGeminiSchema(req.Schema)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	headers := map[string]string{"x-goog-api-key": g.apiKey}

	var gr geminiResponse
	if err := g.postJSON(ctx, url, headers, body, &gr); err != nil {
		return "", err
	}
	if len(gr.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// toGeminiSchema rewrites a JSON schema into Gemini's OpenAPI subset:
// upper-case type names and ["T","null"] unions expressed as nullable.
func toGeminiSchema(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		switch k {
		case "type":
			switch t := v.(type) {
			case string:
				out["type"] = strings.ToUpper(t)
			case []string:
				for _, name := range t {
					if name == "null" {
						out["nullable"] = true
						continue
					}
					out["type"] = strings.ToUpper(name)
				}
			case []any:
				for _, item := range t {
					name, _ := item.(string)
					if name == "null" {
						out["nullable"] = true
						continue
					}
					out["type"] = strings.ToUpper(name)
				}
			}
		case "properties":
			props, _ := v.(map[string]any)
			converted := make(map[string]any, len(props))
			for name, p := range props {
				if pm, ok := p.(map[string]any); ok {
					converted[name] = toGeminiSchema(pm)
				}
			}
			out["properties"] = converted
		case "items":
			if im, ok := v.(map[string]any); ok {
				out["items"] = toGeminiSchema(im)
			}
		case "additionalProperties":
			// not supported by Gemini
		default:
			out[k] = v
		}
	}
	return out
}
