// Package kimi provides a minimal client for Moonshot's OpenAI-compatible
// chat-completions API. The engagement agent talks to the model exclusively
// through this client.
package kimi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Config for the Moonshot client.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	DisableThinking bool // Disable thinking mode for kimi-k2.5 (uses temp 0.6 instead of 1.0)
}

// Client calls Moonshot's chat-completions endpoint.
type Client struct {
	config Config
	http   *http.Client
}

// New creates a Client with defaults applied.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.moonshot.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "kimi-k2-turbo-preview"
	}
	return &Client{
		config: cfg,
		http:   &http.Client{},
	}
}

// Name returns the configured model name.
func (c *Client) Name() string {
	return c.config.Model
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string            `json:"model"`
	Messages    []Message         `json:"messages"`
	Temperature *float64          `json:"temperature,omitempty"`
	Thinking    map[string]string `json:"thinking,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error interface{} `json:"error"`
}

// Complete sends the conversation and returns the assistant's text reply.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	payload := chatRequest{
		Model:    c.config.Model,
		Messages: messages,
	}

	if c.config.DisableThinking {
		payload.Thinking = map[string]string{"type": "disabled"}
		// Non-thinking mode uses fixed temperature 0.6
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode kimi response: %v", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("kimi api error: %v", result.Error)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("kimi api error: empty choices")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}
