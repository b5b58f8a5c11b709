package api

import (
	"errors"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/mycalender/calendar-backend/internal/calendar"
	"github.com/mycalender/calendar-backend/internal/pkg/validator"
)

func (a *Api) getCalendarHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := mapToSnapshotResp(a.viewModel.Snapshot())
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) selectDateHandler(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		Date civil.Date `json:"date"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(req.Date.IsValid(), "date", "a valid date must be provided")
	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	a.viewModel.SelectDate(req.Date)

	resp, err := mapToSnapshotResp(a.viewModel.Snapshot())
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) selectMonthHandler(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		Year  int        `json:"year"`
		Month time.Month `json:"month"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(req.Year > 0, "year", "a valid year must be provided")
	v.Check(req.Month >= time.January && req.Month <= time.December, "month", "month must be between 1 and 12")
	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	a.viewModel.SelectMonth(calendar.MonthYear{Year: req.Year, Month: req.Month})

	resp, err := mapToSnapshotResp(a.viewModel.Snapshot())
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

// streamCalendarHandler pushes a snapshot over SSE on every calendar state
// change, starting with the current one.
func (a *Api) streamCalendarHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		a.serverErrorResponse(w, r, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for snap := range a.viewModel.Watch(r.Context()) {
		resp, err := mapToSnapshotResp(snap)
		if err != nil {
			a.logger.Errorw("failed to map calendar snapshot", "err", err)
			return
		}

		if err := writeSSE(w, resp); err != nil {
			a.logger.Debugw("calendar stream closed", "err", err)
			return
		}
		flusher.Flush()
	}
}
