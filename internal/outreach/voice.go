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

// VoiceClient starts outbound calls through an external voice-agent service.
// The drafted call script becomes the agent's instructions for the call.
type VoiceClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

type voiceCallRequest struct {
	Phone     string `json:"phone"`
	Objective string `json:"objective"`
	Script    string `json:"script"`
}

type voiceCallResponse struct {
	CallID string `json:"call_id"`
}

// NewVoiceClient returns nil when no voice service is configured.
func NewVoiceClient(cfg config.MessagingConfig, log *logger.Logger) *VoiceClient {
	if cfg.GetVoiceAPIURL() == "" {
		return nil
	}
	return &VoiceClient{
		baseURL: strings.TrimRight(cfg.GetVoiceAPIURL(), "/"),
		apiKey:  cfg.GetVoiceAPIKey(),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

func (c *VoiceClient) StartCall(ctx context.Context, phoneNumber, objective, script string) (string, error) {
	normalized := phone.NormalizeE164(phoneNumber)

	body, err := json.Marshal(voiceCallRequest{
		Phone:     normalized,
		Objective: objective,
		Script:    script,
	})
	if err != nil {
		return "", fmt.Errorf("marshal voice payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/calls", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("voice request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("voice service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed voiceCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		parsed.CallID = ""
	}

	c.log.Info("voice outreach call started", "phone", normalized)
	return parsed.CallID, nil
}
