package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/raidwatch/raidwatch/internal/types"
	"github.com/rs/zerolog"
)

const announcement = "🔔 Бот активний. Відстежую тривоги."

// Sender delivers rendered text to a single destination
type Sender interface {
	Type() string
	Send(ctx context.Context, text string) error
	Validate() error
}

// SendError wraps a failed delivery of a transition notification
type SendError struct {
	Kind       types.EventKind
	LocationID int
	Err        error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send %s notification for region %d: %v", e.Kind, e.LocationID, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Notifier renders transition events and hands them to a Sender
type Notifier struct {
	sender Sender
	logger zerolog.Logger
}

// NewNotifier creates a notifier on top of sender
func NewNotifier(sender Sender, logger zerolog.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		logger: logger.With().Str("component", "notifier").Str("channel", sender.Type()).Logger(),
	}
}

// Render formats an event as a chat message
func Render(event types.TransitionEvent) string {
	switch event.Kind {
	case types.EventStarted:
		text := fmt.Sprintf("🚨 %s - повітряна тривога!", event.LocationName)
		if notes := strings.TrimSpace(event.Notes); notes != "" {
			text += "\n📜 Коментар: " + notes
		}
		return text
	case types.EventEnded:
		return fmt.Sprintf("✅ %s - відбій повітряної тривоги!", event.LocationName)
	default:
		return fmt.Sprintf("ℹ️ %s - %s", event.LocationName, event.Kind)
	}
}

// Notify sends one event. Failures are returned as *SendError and are not retried.
func (n *Notifier) Notify(ctx context.Context, event types.TransitionEvent) error {
	if err := n.sender.Send(ctx, Render(event)); err != nil {
		return &SendError{Kind: event.Kind, LocationID: event.LocationID, Err: err}
	}

	n.logger.Info().
		Int("location_id", event.LocationID).
		Str("kind", string(event.Kind)).
		Msg("Notification sent")
	return nil
}

// Announce sends the startup message
func (n *Notifier) Announce(ctx context.Context) error {
	if err := n.sender.Send(ctx, announcement); err != nil {
		return fmt.Errorf("send announcement: %w", err)
	}
	return nil
}
