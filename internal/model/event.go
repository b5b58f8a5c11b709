package model

import (
	"time"

	"cloud.google.com/go/civil"
)

// DeliveryMethod is the channel a reminder is delivered through. The tag
// values are part of the storage and push payload format.
type DeliveryMethod string

const (
	MethodNotification DeliveryMethod = "Notification"
	MethodRingtone     DeliveryMethod = "Ringtone"
	MethodVibration    DeliveryMethod = "Vibration"
	MethodVoice        DeliveryMethod = "Voice Reminder"
)

func (m DeliveryMethod) Known() bool {
	switch m {
	case MethodNotification, MethodRingtone, MethodVibration, MethodVoice:
		return true
	}
	return false
}

// Reminder is a lead-time before the event start paired with a delivery
// method. Lead times are truncated to whole minutes when scheduling.
type Reminder struct {
	LeadTime time.Duration
	Method   DeliveryMethod
}

type EventCreate struct {
	Title     string
	Note      string
	Date      civil.Date
	StartTime civil.Time
	EndTime   civil.Time
	Reminders []Reminder
}

type Event struct {
	ID int64
	EventCreate
}

// Start combines the event's date and start time into a single wall-clock
// value interpreted in the given zone.
func (e *EventCreate) Start(loc *time.Location) time.Time {
	return civil.DateTime{Date: e.Date, Time: e.StartTime}.In(loc)
}
