package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/mycalender/calendar-backend/internal/model"
	"github.com/mycalender/calendar-backend/internal/pkg/validator"
)

func (a *Api) validateEventReq(req *eventReq) *validator.Validator {
	v := validator.New()

	v.Check(len(req.Title) != 0, "title", "title must be provided")
	v.Check(req.Date.IsValid(), "date", "a valid date must be provided")
	v.Check(req.StartTime.IsValid(), "start_time", "a valid start time must be provided")
	v.Check(req.EndTime.IsValid(), "end_time", "a valid end time must be provided")

	if req.StartTime.IsValid() && req.EndTime.IsValid() {
		start := civil.DateTime{Date: req.Date, Time: req.StartTime}
		end := civil.DateTime{Date: req.Date, Time: req.EndTime}
		v.Check(start.Before(end), "end_time", "end time must be after start time")
	}

	v.Check(len(req.Reminders) > 0, "reminders", "at least one reminder must be provided")

	for i, r := range req.Reminders {
		v.Check(r.LeadTimeMs >= 0, fmt.Sprintf("reminders[%d].lead_time_ms", i), "lead time must not be negative")
		v.Check(model.DeliveryMethod(r.Method).Known(), fmt.Sprintf("reminders[%d].method", i), fmt.Sprintf("unknown delivery method %q", r.Method))
	}

	return v
}

func (a *Api) createEventHandler(w http.ResponseWriter, r *http.Request) {
	req := &eventReq{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	if v := a.validateEventReq(req); !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	event, err := a.viewModel.AddEvent(r.Context(), req.toEventCreate())
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("create event: %w", err))
		return
	}

	a.scheduler.ScheduleEvent(event)

	resp, err := mapToEventResp(event)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusCreated, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) updateEventHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		a.notFoundResponse(w, r)
		return
	}

	req := &eventReq{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	if v := a.validateEventReq(req); !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	event := &model.Event{ID: id, EventCreate: *req.toEventCreate()}
	if err := a.viewModel.UpdateEvent(r.Context(), event); err != nil {
		switch {
		case errors.Is(err, model.ErrNoRecord):
			a.notFoundResponse(w, r)
		default:
			a.serverErrorResponse(w, r, fmt.Errorf("update event: %w", err))
		}
		return
	}

	a.scheduler.ScheduleEvent(event)

	resp, err := mapToEventResp(event)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) deleteEventHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		a.notFoundResponse(w, r)
		return
	}

	if err := a.viewModel.DeleteEvent(r.Context(), id); err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("delete event: %w", err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (a *Api) getEventHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		a.notFoundResponse(w, r)
		return
	}

	event, err := a.events.GetEventByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoRecord):
			a.notFoundResponse(w, r)
		default:
			a.serverErrorResponse(w, r, fmt.Errorf("get event: %w", err))
		}
		return
	}

	resp, err := mapToEventResp(event)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

// getEventsHandler returns events for the date in the ?date= query, or every
// event when no date is given.
func (a *Api) getEventsHandler(w http.ResponseWriter, r *http.Request) {
	var events []*model.Event
	var err error

	if v := r.URL.Query().Get("date"); v != "" {
		date, parseErr := civil.ParseDate(v)
		if parseErr != nil {
			a.badRequestResponse(w, r, fmt.Errorf("invalid date format: %w", parseErr))
			return
		}
		events, err = a.events.GetEventsByDate(r.Context(), date)
	} else {
		events, err = a.events.GetAllEvents(r.Context())
	}
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("get events: %w", err))
		return
	}

	resp, err := mapSlice(events, mapToEventResp)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}
