package api

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/mycalender/calendar-backend/internal/calendar"
	"github.com/mycalender/calendar-backend/internal/model"
)

type reminderReq struct {
	LeadTimeMs int64  `json:"lead_time_ms"`
	Method     string `json:"method"`
}

type eventReq struct {
	Title     string        `json:"title"`
	Note      string        `json:"note"`
	Date      civil.Date    `json:"date"`
	StartTime civil.Time    `json:"start_time"`
	EndTime   civil.Time    `json:"end_time"`
	Reminders []reminderReq `json:"reminders"`
}

func (req *eventReq) toEventCreate() *model.EventCreate {
	reminders, _ := mapSlice(req.Reminders, func(r reminderReq) (model.Reminder, error) {
		return model.Reminder{
			LeadTime: time.Duration(r.LeadTimeMs) * time.Millisecond,
			Method:   model.DeliveryMethod(r.Method),
		}, nil
	})

	return &model.EventCreate{
		Title:     req.Title,
		Note:      req.Note,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reminders: reminders,
	}
}

type eventResp struct {
	ID        int64         `json:"id"`
	Title     string        `json:"title"`
	Note      string        `json:"note,omitempty"`
	Date      civil.Date    `json:"date"`
	StartTime civil.Time    `json:"start_time"`
	EndTime   civil.Time    `json:"end_time"`
	Reminders []reminderReq `json:"reminders"`
}

func mapToEventResp(event *model.Event) (*eventResp, error) {
	reminders, _ := mapSlice(event.Reminders, func(r model.Reminder) (reminderReq, error) {
		return reminderReq{
			LeadTimeMs: r.LeadTime.Milliseconds(),
			Method:     string(r.Method),
		}, nil
	})

	return &eventResp{
		ID:        event.ID,
		Title:     event.Title,
		Note:      event.Note,
		Date:      event.Date,
		StartTime: event.StartTime,
		EndTime:   event.EndTime,
		Reminders: reminders,
	}, nil
}

type snapshotResp struct {
	SelectedDate          civil.Date         `json:"selected_date"`
	CurrentMonthYear      calendar.MonthYear `json:"current_month_year"`
	EventsForSelectedDate []*eventResp       `json:"events_for_selected_date"`
	AllEvents             []*eventResp       `json:"all_events"`
}

func mapToSnapshotResp(snap calendar.Snapshot) (*snapshotResp, error) {
	byDate, err := mapSlice(snap.EventsForSelectedDate, mapToEventResp)
	if err != nil {
		return nil, err
	}

	all, err := mapSlice(snap.AllEvents, mapToEventResp)
	if err != nil {
		return nil, err
	}

	return &snapshotResp{
		SelectedDate:          snap.SelectedDate,
		CurrentMonthYear:      snap.CurrentMonthYear,
		EventsForSelectedDate: byDate,
		AllEvents:             all,
	}, nil
}
