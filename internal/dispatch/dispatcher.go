package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/mycalender/calendar-backend/internal/alarm"
	"github.com/mycalender/calendar-backend/internal/model"
	"go.uber.org/zap"
)

const vibrationPulse = time.Second

type Notifier interface {
	EnsureChannel(ctx context.Context) error
	Post(ctx context.Context, eventID int64, title, body string) error
}

type RingtonePlayer interface {
	Play(ctx context.Context) error
}

type Vibrator interface {
	Vibrate(ctx context.Context, d time.Duration) error
}

type Speaker interface {
	Speak(text string)
}

// DeliveryLog records reminder deliveries durably. MarkDelivered returns
// false when the key was already recorded, making firing idempotent across
// rearm passes.
type DeliveryLog interface {
	MarkDelivered(ctx context.Context, key string) (bool, error)
}

// Dispatcher receives fired alarms and performs exactly one action chosen
// by the payload's delivery method.
type Dispatcher struct {
	logger     *zap.SugaredLogger
	notifier   Notifier
	ringtone   RingtonePlayer
	vibrator   Vibrator
	speaker    Speaker
	deliveries DeliveryLog
}

func NewDispatcher(
	logger *zap.SugaredLogger,
	notifier Notifier,
	ringtone RingtonePlayer,
	vibrator Vibrator,
	speaker Speaker,
	deliveries DeliveryLog,
) *Dispatcher {
	return &Dispatcher{
		logger:     logger,
		notifier:   notifier,
		ringtone:   ringtone,
		vibrator:   vibrator,
		speaker:    speaker,
		deliveries: deliveries,
	}
}

// HandleAlarm satisfies alarm.Handler.
func (d *Dispatcher) HandleAlarm(ctx context.Context, key string, at time.Time, p alarm.Payload) {
	deliveryKey := fmt.Sprintf("%s@%d", key, at.Unix())
	first, logErr := d.deliveries.MarkDelivered(ctx, deliveryKey)
	if logErr != nil {
		// A broken log is no reason to drop a reminder; the worst case
		// flips to a duplicate delivery.
		d.logger.Errorw("delivery log unavailable", "key", deliveryKey, "err", logErr)
	} else if !first {
		d.logger.Debugw("reminder already delivered", "key", deliveryKey)
		return
	}

	var err error
	switch p.Method {
	case model.MethodNotification:
		err = d.notifier.Post(ctx, p.EventID, "Reminder", fmt.Sprintf("%s is about to start", p.Title))
	case model.MethodRingtone:
		err = d.ringtone.Play(ctx)
	case model.MethodVibration:
		err = d.vibrator.Vibrate(ctx, vibrationPulse)
	case model.MethodVoice:
		d.speaker.Speak(fmt.Sprintf("%s is about to start", p.Title))
	default:
		err = fmt.Errorf("unknown delivery method %q", p.Method)
	}

	if err != nil {
		d.logger.Errorw("failed to deliver reminder",
			"event_id", p.EventID,
			"method", p.Method,
			"err", err,
		)
		return
	}

	d.logger.Infow("delivered reminder",
		"event_id", p.EventID,
		"title", p.Title,
		"method", p.Method,
	)
}
