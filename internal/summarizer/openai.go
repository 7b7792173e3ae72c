package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ryosukesatoh/journalbot/internal/retry"
)

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	endpoint  string
	model     string
	apiKey    string
	maxTokens int
	client    *http.Client
	retryCfg  retry.Config
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client. The endpoint may point at any
// chat-completions-compatible server.
func NewOpenAIClient(endpoint, model, apiKey string, maxTokens int) *OpenAIClient {
	return &OpenAIClient{
		endpoint:  endpoint,
		model:     model,
		apiKey:    apiKey,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
		retryCfg:  retry.DefaultConfig(),
	}
}

// OpenAI API request/response types

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Complete sends one request and returns the raw assistant reply. Transient
// failures are retried with backoff before giving up.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	var reply string
	err := retry.WithBackoff(ctx, c.retryCfg, func(ctx context.Context) error {
		var callErr error
		reply, callErr = c.callAPI(ctx, system, user)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (c *OpenAIClient) callAPI(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.5,
		MaxTokens:   c.maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("openai: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("openai: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai: api error status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("openai: failed to parse response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("openai: api error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}

	return apiResp.Choices[0].Message.Content, nil
}
