package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/air-quality-insight/internal/metrics"
	"github.com/i474232898/air-quality-insight/internal/resilience"
)

// ErrNotConfigured is returned by New when no API key is available.
var ErrNotConfigured = errors.New("llm not configured")

// ErrEmptyResponse means the provider answered without any text.
var ErrEmptyResponse = errors.New("empty llm response")

// Request is one completion call.
type Request struct {
	Prompt string
	// Schema is an optional JSON schema the answer must follow. Providers that
	// support structured output enforce it server side.
	Schema map[string]any
}

// Client turns a prompt into text.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// New creates a Client for provider ("gemini", "openai" or "claude").
func New(provider, apiKey, model string, client *http.Client) (Client, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	t := transport{
		httpCfg: resilience.HTTPClientConfig{Client: client, Backoff: resilience.DefaultBackoff},
	}

	switch provider {
	case "", "gemini":
		if model == "" {
			model = "gemini-2.5-flash"
		}
		t.name = "gemini"
		t.circuit = resilience.NewBreaker(t.name)
		return &geminiProvider{transport: t, apiKey: apiKey, model: model,
			baseURL: "https://generativelanguage.googleapis.com/v1beta"}, nil
	case "openai":
		if model == "" {
			model = "gpt-4o-mini"
		}
		t.name = "openai"
		t.circuit = resilience.NewBreaker(t.name)
		return &openaiProvider{transport: t, apiKey: apiKey, model: model,
			baseURL: "https://api.openai.com/v1"}, nil
	case "claude":
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		t.name = "claude"
		t.circuit = resilience.NewBreaker(t.name)
		return &claudeProvider{transport: t, apiKey: apiKey, model: model,
			baseURL: "https://api.anthropic.com/v1"}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q (valid: gemini, openai, claude)", provider)
	}
}

// StripFences removes a surrounding markdown code fence (```json ... ```) if present.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], "{[") {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// transport is the shared POST-JSON path of every provider.
type transport struct {
	name    string
	httpCfg resilience.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func (t transport) Name() string {
	return t.name
}

func (t transport) postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", t.name, err)
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}

	began := time.Now()
	resp, err := resilience.Do(ctx, t.httpCfg, t.circuit, buildRequest)
	metrics.ObserveUpstream(t.name, began)
	if err != nil {
		return fmt.Errorf("%s API error: %w", t.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", t.name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", t.name, err)
	}
	return nil
}
