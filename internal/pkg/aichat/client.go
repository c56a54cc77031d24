package aichat

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

	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 500
)

var (
	// ErrUpstreamStatus is a non-2xx answer from the completion endpoint.
	ErrUpstreamStatus = errors.New("completion endpoint returned an error status")
	// ErrUnexpectedResponse means the call succeeded but carried no usable text.
	ErrUnexpectedResponse = errors.New("completion response has an unexpected shape")
)

// Client produces one assistant reply for a conversation.
type Client interface {
	Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error)
}

// OpenAIClient talks to any OpenAI compatible /chat/completions endpoint.
type OpenAIClient struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &OpenAIClient{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		maxTokens: defaultMaxTokens,
		// The caller's context carries the real budget.
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

// NewOpenAIClientFromEnv returns nil when LLM_API_KEY is not set.
func NewOpenAIClientFromEnv() *OpenAIClient {
	key := strings.TrimSpace(env.GetEnv("LLM_API_KEY", ""))
	if key == "" {
		return nil
	}
	return NewOpenAIClient(key, env.GetEnv("LLM_BASE_URL", defaultBaseURL), env.GetEnv("LLM_MODEL", defaultModel))
}

func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	msgs := make([]Message, 0, len(messages)+1)
	msgs = append(msgs, Message{Role: RoleSystem, Content: systemPrompt})
	msgs = append(msgs, messages...)

	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   c.maxTokens,
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w (%d): %s", ErrUpstreamStatus, resp.StatusCode, string(respBody))
	}

	var out completionResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrUnexpectedResponse
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
