package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"permitflow_backend/platform/config"
	"permitflow_backend/platform/logger"
	"permitflow_backend/platform/phone"
)

// ChatClient sends chat/SMS outreach through an external messaging gateway.
type ChatClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

type chatSendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type chatSendResponse struct {
	MessageID string `json:"message_id"`
}

// NewChatClient returns nil when no gateway is configured; callers treat a
// nil client as the channel being unavailable.
func NewChatClient(cfg config.MessagingConfig, log *logger.Logger) *ChatClient {
	if cfg.GetChatAPIURL() == "" {
		return nil
	}
	return &ChatClient{
		baseURL: strings.TrimRight(cfg.GetChatAPIURL(), "/"),
		apiKey:  cfg.GetChatAPIKey(),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

func (c *ChatClient) Send(ctx context.Context, phoneNumber, message string) (string, error) {
	normalized := phone.NormalizeE164(phoneNumber)

	body, err := json.Marshal(chatSendRequest{Phone: normalized, Message: message})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send/message", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed chatSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		// Some gateways answer 200 with an empty body; the send still counts.
		parsed.MessageID = ""
	}

	c.log.Info("chat outreach sent", "phone", normalized)
	return parsed.MessageID, nil
}
