package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// AppriseSender delivers messages through an Apprise API server
type AppriseSender struct {
	apiURL string
	key    string
	client *resty.Client
}

// NewApprise creates a sender that posts to {apiURL}/notify/{key}
func NewApprise(apiURL, key string) *AppriseSender {
	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(10 * time.Second).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &AppriseSender{apiURL: apiURL, key: key, client: client}
}

func (s *AppriseSender) Type() string { return "apprise" }

func (s *AppriseSender) Validate() error {
	if s.apiURL == "" || s.key == "" {
		return errors.New("apprise api url and key are required")
	}
	return nil
}

// Send posts a plain-text notification
func (s *AppriseSender) Send(ctx context.Context, text string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("key", s.key).
		SetBody(map[string]string{
			"title":  "raidwatch",
			"body":   text,
			"format": "text",
		}).
		Post("/notify/{key}")
	if err != nil {
		return fmt.Errorf("apprise request: %w", err)
	}

	if resp.StatusCode() >= 400 {
		return fmt.Errorf("Apprise API error: %d - %s", resp.StatusCode(), resp.String())
	}
	return nil
}
