package push

import (
	"context"
	"fmt"
	"strconv"
	"time"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
)

// channelID must match the notification channel the mobile client creates.
const channelID = "reminder_channel"

// Service delivers reminders to the paired device over FCM. Notifications
// are real push notifications; ringtone and vibration are data-only
// messages the client acts on.
type Service struct {
	client *messaging.Client
	token  string
}

func NewService(ctx context.Context, deviceToken string) (*Service, error) {
	app, err := firebase.NewApp(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining messaging client: %w", err)
	}

	return &Service{
		client: client,
		token:  deviceToken,
	}, nil
}

// EnsureChannel verifies the delivery path is usable. The channel itself
// lives on the device; without a registered token nothing can be posted.
func (s *Service) EnsureChannel(ctx context.Context) error {
	if s.token == "" {
		return fmt.Errorf("no device push token configured")
	}

	return nil
}

func (s *Service) Post(ctx context.Context, eventID int64, title, body string) error {
	message := &messaging.Message{
		Token: s.token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"channel_id": channelID,
			"event_id":   strconv.FormatInt(eventID, 10),
		},
	}

	if _, err := s.client.Send(ctx, message); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func (s *Service) Play(ctx context.Context) error {
	return s.sendAction(ctx, map[string]string{
		"action": "ringtone",
	})
}

func (s *Service) Vibrate(ctx context.Context, d time.Duration) error {
	return s.sendAction(ctx, map[string]string{
		"action":      "vibrate",
		"duration_ms": strconv.FormatInt(d.Milliseconds(), 10),
	})
}

func (s *Service) sendAction(ctx context.Context, data map[string]string) error {
	message := &messaging.Message{
		Token: s.token,
		Data:  data,
	}

	if _, err := s.client.Send(ctx, message); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}
