package events

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/mycalender/calendar-backend/internal/model"
)

type eventDTO struct {
	ID              int64
	Title           string
	Note            string
	Date            string
	StartTime       string
	EndTime         string
	ReminderTimes   string
	ReminderMethods string
}

// encodeReminders splits the reminder pairs into the two stored JSON
// arrays: lead times in milliseconds and method tags, positionally aligned.
func encodeReminders(reminders []model.Reminder) (string, string, error) {
	times := make([]int64, len(reminders))
	methods := make([]string, len(reminders))
	for i, r := range reminders {
		times[i] = r.LeadTime.Milliseconds()
		methods[i] = string(r.Method)
	}

	timesJSON, err := json.Marshal(times)
	if err != nil {
		return "", "", fmt.Errorf("marshal reminder times: %w", err)
	}
	methodsJSON, err := json.Marshal(methods)
	if err != nil {
		return "", "", fmt.Errorf("marshal reminder methods: %w", err)
	}

	return string(timesJSON), string(methodsJSON), nil
}

func decodeReminders(timesJSON, methodsJSON string) ([]model.Reminder, error) {
	var times []int64
	if err := json.Unmarshal([]byte(timesJSON), &times); err != nil {
		return nil, fmt.Errorf("unmarshal reminder times: %w", err)
	}
	var methods []string
	if err := json.Unmarshal([]byte(methodsJSON), &methods); err != nil {
		return nil, fmt.Errorf("unmarshal reminder methods: %w", err)
	}

	if len(times) != len(methods) {
		return nil, fmt.Errorf("reminder times/methods length mismatch: %d vs %d", len(times), len(methods))
	}

	reminders := make([]model.Reminder, len(times))
	for i := range times {
		reminders[i] = model.Reminder{
			LeadTime: time.Duration(times[i]) * time.Millisecond,
			Method:   model.DeliveryMethod(methods[i]),
		}
	}

	return reminders, nil
}

func mapToEvent(dto *eventDTO) (*model.Event, error) {
	date, err := civil.ParseDate(dto.Date)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", dto.Date, err)
	}
	startTime, err := civil.ParseTime(dto.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parse start time %q: %w", dto.StartTime, err)
	}
	endTime, err := civil.ParseTime(dto.EndTime)
	if err != nil {
		return nil, fmt.Errorf("parse end time %q: %w", dto.EndTime, err)
	}

	reminders, err := decodeReminders(dto.ReminderTimes, dto.ReminderMethods)
	if err != nil {
		return nil, err
	}

	return &model.Event{
		ID: dto.ID,
		EventCreate: model.EventCreate{
			Title:     dto.Title,
			Note:      dto.Note,
			Date:      date,
			StartTime: startTime,
			EndTime:   endTime,
			Reminders: reminders,
		},
	}, nil
}

func mapEvents(dtos []*eventDTO) ([]*model.Event, error) {
	res := make([]*model.Event, len(dtos))
	for i, d := range dtos {
		e, err := mapToEvent(d)
		if err != nil {
			return nil, err
		}
		res[i] = e
	}

	return res, nil
}
