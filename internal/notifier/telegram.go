package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// TelegramSender posts messages through the Bot API sendMessage method
type TelegramSender struct {
	token  string
	chatID string
	client *resty.Client
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewTelegram returns a sender with a shared HTTP client to reuse connections.
// apiURL is normally https://api.telegram.org.
func NewTelegram(apiURL, token, chatID string) *TelegramSender {
	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(10 * time.Second).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &TelegramSender{
		token:  token,
		chatID: chatID,
		client: client,
	}
}

func (s *TelegramSender) Type() string { return "telegram" }

// Validate ensures we have enough configuration before running the loop
func (s *TelegramSender) Validate() error {
	if s.token == "" || s.chatID == "" {
		return errors.New("telegram token and chat id are required")
	}
	return nil
}

// Send posts text to the configured chat
func (s *TelegramSender) Send(ctx context.Context, text string) error {
	var result telegramResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("token", s.token).
		SetBody(map[string]string{
			"chat_id": s.chatID,
			"text":    text,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/bot{token}/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}

	if resp.IsError() || !result.OK {
		if result.Description != "" {
			return fmt.Errorf("telegram returned %d: %s", resp.StatusCode(), result.Description)
		}
		return fmt.Errorf("telegram returned %s", resp.Status())
	}
	return nil
}
