package whatsapp

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

	"github.com/rs/zerolog"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

const DefaultBaseURL = "https://graph.facebook.com/v18.0"

var ErrNotConfigured = errors.New("whatsapp: access token or phone id not configured")

type Client struct {
	accessToken string
	phoneID     string
	template    string
	recipient   string
	baseURL     string
	http        *http.Client
	logger      zerolog.Logger
}

type Config struct {
	AccessToken string
	PhoneID     string
	Template    string
	Recipient   string
	BaseURL     string
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Template == "" {
		cfg.Template = "counselor_action"
	}
	return &Client{
		accessToken: cfg.AccessToken,
		phoneID:     cfg.PhoneID,
		template:    cfg.Template,
		recipient:   cfg.Recipient,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http:        &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// NotifyAction sends the counselor line a template message naming the
// patient and why they need attention today.
func (c *Client) NotifyAction(ctx context.Context, n entity.ActionNotification) error {
	due := n.DueDate.String()
	if due == "" {
		due = "-"
	}
	return c.SendMessage(ctx, SendMessageInput{
		PhoneNumber:  internationalize(c.recipient),
		TemplateName: c.template,
		Parameters:   []string{n.Name, n.Phone, reasonLabel(n.Reason), string(n.Phase), due},
	})
}

func (c *Client) SendMessage(ctx context.Context, input SendMessageInput) error {
	if c.accessToken == "" || c.phoneID == "" {
		return ErrNotConfigured
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                input.PhoneNumber,
		"type":              "template",
		"template": map[string]interface{}{
			"name": input.TemplateName,
			"language": map[string]string{
				"code": "ko",
			},
			"components": []map[string]interface{}{
				{
					"type":       "body",
					"parameters": convertParametersToAPI(input.Parameters),
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("whatsapp: failed to encode payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var result SendMessageResponse
	_ = json.Unmarshal(respBody, &result)

	if result.Error != nil {
		return fmt.Errorf("whatsapp: %s (code %d)", result.Error.Message, result.Error.Code)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("whatsapp api error: %d", resp.StatusCode)
	}

	c.logger.Debug().Str("to", input.PhoneNumber).Str("template", input.TemplateName).Msg("whatsapp message sent")
	return nil
}

func convertParametersToAPI(params []string) []map[string]string {
	result := make([]map[string]string, 0, len(params))
	for _, param := range params {
		result = append(result, map[string]string{
			"type": "text",
			"text": param,
		})
	}
	return result
}

// internationalize turns a domestic number (010-1234-5678) into 821012345678.
func internationalize(phone string) string {
	digits := entity.NormalizePhone(phone)
	if strings.HasPrefix(digits, "0") {
		return "82" + digits[1:]
	}
	return digits
}

func reasonLabel(r entity.ActionReason) string {
	switch r {
	case entity.ReasonOverdue:
		return "콜백 지연"
	case entity.ReasonDueToday:
		return "오늘 콜백"
	case entity.ReasonReminderNeeded:
		return "리마인드 등록 필요"
	}
	return string(r)
}
