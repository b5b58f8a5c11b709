package api

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/mycalender/calendar-backend/internal/calendar"
	"github.com/mycalender/calendar-backend/internal/model"
	"github.com/mycalender/calendar-backend/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "correct horse"

type fakeRefreshTokens struct {
	mu       sync.Mutex
	sessions map[string]int64
}

func newFakeRefreshTokens() *fakeRefreshTokens {
	return &fakeRefreshTokens{sessions: map[string]int64{}}
}

func (f *fakeRefreshTokens) Add(_ context.Context, session string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[session]; ok {
		return model.ErrAlreadyExists
	}
	f.sessions[session] = id
	return nil
}

func (f *fakeRefreshTokens) Get(_ context.Context, session string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.sessions[session]
	if !ok {
		return 0, model.ErrNoRecord
	}
	return id, nil
}

func (f *fakeRefreshTokens) Refresh(ctx context.Context, old, new string) error {
	id, err := f.Get(ctx, old)
	if err != nil {
		return err
	}
	if err := f.Add(ctx, new, id); err != nil {
		return err
	}
	return f.Delete(ctx, old)
}

func (f *fakeRefreshTokens) Delete(_ context.Context, session string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[session]; !ok {
		return model.ErrNoRecord
	}
	delete(f.sessions, session)
	return nil
}

type fakeEventsReader struct {
	events map[int64]*model.Event
}

func (f *fakeEventsReader) GetEventByID(_ context.Context, id int64) (*model.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, model.ErrNoRecord
	}
	return e, nil
}

func (f *fakeEventsReader) GetEventsByDate(_ context.Context, date civil.Date) ([]*model.Event, error) {
	var res []*model.Event
	for _, e := range f.events {
		if e.Date == date {
			res = append(res, e)
		}
	}
	return res, nil
}

func (f *fakeEventsReader) GetAllEvents(_ context.Context) ([]*model.Event, error) {
	var res []*model.Event
	for _, e := range f.events {
		res = append(res, e)
	}
	return res, nil
}

type fakeViewModel struct {
	added    []*model.EventCreate
	updated  []*model.Event
	deleted  []int64
	selected []civil.Date
	months   []calendar.MonthYear
	snap     calendar.Snapshot
}

func (f *fakeViewModel) AddEvent(_ context.Context, info *model.EventCreate) (*model.Event, error) {
	f.added = append(f.added, info)
	return &model.Event{ID: int64(len(f.added)), EventCreate: *info}, nil
}

func (f *fakeViewModel) UpdateEvent(_ context.Context, event *model.Event) error {
	f.updated = append(f.updated, event)
	return nil
}

func (f *fakeViewModel) DeleteEvent(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeViewModel) SelectDate(date civil.Date) {
	f.selected = append(f.selected, date)
	f.snap.SelectedDate = date
}

func (f *fakeViewModel) SelectMonth(my calendar.MonthYear) {
	f.months = append(f.months, my)
	f.snap.CurrentMonthYear = my
}

func (f *fakeViewModel) Snapshot() calendar.Snapshot { return f.snap }

func (f *fakeViewModel) Watch(_ context.Context) <-chan calendar.Snapshot {
	ch := make(chan calendar.Snapshot, 1)
	ch <- f.snap
	close(ch)
	return ch
}

type fakeScheduler struct {
	scheduled []*model.Event
}

func (f *fakeScheduler) ScheduleEvent(e *model.Event) {
	f.scheduled = append(f.scheduled, e)
}

type testApi struct {
	api       *Api
	jwts      *jwt.Manager
	sessions  *fakeRefreshTokens
	events    *fakeEventsReader
	viewModel *fakeViewModel
	scheduler *fakeScheduler
}

func newTestApi(t *testing.T) *testApi {
	t.Helper()

	jwts := jwt.NewManger("test-secret", 20*time.Minute)
	sessions := newFakeRefreshTokens()
	events := &fakeEventsReader{events: map[int64]*model.Event{}}
	viewModel := &fakeViewModel{}
	scheduler := &fakeScheduler{}

	a, err := NewApi(
		zap.NewNop().Sugar(),
		rand.Reader,
		testPassword,
		32,
		jwts,
		sessions,
		events,
		viewModel,
		scheduler,
	)
	require.NoError(t, err)

	return &testApi{
		api:       a,
		jwts:      jwts,
		sessions:  sessions,
		events:    events,
		viewModel: viewModel,
		scheduler: scheduler,
	}
}

func (ta *testApi) request(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if authed {
		token, err := ta.jwts.CreateToken(singleUserID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ta.api.ServeHTTP(rec, req)
	return rec
}

func validEventBody() map[string]interface{} {
	return map[string]interface{}{
		"title":      "Dentist",
		"note":       "bring card",
		"date":       "2024-06-01",
		"start_time": "10:00:00",
		"end_time":   "10:30:00",
		"reminders": []map[string]interface{}{
			{"lead_time_ms": 3600000, "method": "Notification"},
		},
	}
}

func TestSignIn(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		ta := newTestApi(t)

		rec := ta.request(t, http.MethodPost, "/auth/signin", map[string]string{"password": "nope"}, false)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, ta.sessions.sessions)
	})

	t.Run("correct password", func(t *testing.T) {
		ta := newTestApi(t)

		rec := ta.request(t, http.MethodPost, "/auth/signin", map[string]string{"password": testPassword}, false)

		require.Equal(t, http.StatusOK, rec.Code)

		resp := &tokens{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)

		id, err := ta.sessions.Get(context.Background(), resp.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, int64(singleUserID), id)
	})
}

func TestRefreshAndLogout(t *testing.T) {
	ta := newTestApi(t)
	require.NoError(t, ta.sessions.Add(context.Background(), "old-session", singleUserID))

	rec := ta.request(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": "old-session"}, false)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := &tokens{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))

	// The old session is gone, the new one works.
	_, err := ta.sessions.Get(context.Background(), "old-session")
	assert.Error(t, err)

	rec = ta.request(t, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": resp.RefreshToken}, false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ta.request(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": resp.RefreshToken}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	ta := newTestApi(t)

	rec := ta.request(t, http.MethodGet, "/events", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec = httptest.NewRecorder()
	ta.api.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateEvent(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		ta := newTestApi(t)

		rec := ta.request(t, http.MethodPost, "/events", validEventBody(), true)

		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, ta.viewModel.added, 1)
		assert.Equal(t, "Dentist", ta.viewModel.added[0].Title)
		assert.Equal(t, time.Hour, ta.viewModel.added[0].Reminders[0].LeadTime)

		require.Len(t, ta.scheduler.scheduled, 1)
		assert.Equal(t, "Dentist", ta.scheduler.scheduled[0].Title)
	})

	t.Run("empty title", func(t *testing.T) {
		ta := newTestApi(t)

		body := validEventBody()
		body["title"] = ""
		rec := ta.request(t, http.MethodPost, "/events", body, true)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Empty(t, ta.viewModel.added)
		assert.Empty(t, ta.scheduler.scheduled)
	})

	t.Run("end before start", func(t *testing.T) {
		ta := newTestApi(t)

		body := validEventBody()
		body["end_time"] = "09:00:00"
		rec := ta.request(t, http.MethodPost, "/events", body, true)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Empty(t, ta.viewModel.added)
	})

	t.Run("no reminders", func(t *testing.T) {
		ta := newTestApi(t)

		body := validEventBody()
		body["reminders"] = []map[string]interface{}{}
		rec := ta.request(t, http.MethodPost, "/events", body, true)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Empty(t, ta.viewModel.added)
		assert.Empty(t, ta.scheduler.scheduled)
	})

	t.Run("unknown delivery method", func(t *testing.T) {
		ta := newTestApi(t)

		body := validEventBody()
		body["reminders"] = []map[string]interface{}{
			{"lead_time_ms": 0, "method": "Carrier Pigeon"},
		}
		rec := ta.request(t, http.MethodPost, "/events", body, true)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Empty(t, ta.viewModel.added)
	})

	t.Run("negative lead time", func(t *testing.T) {
		ta := newTestApi(t)

		body := validEventBody()
		body["reminders"] = []map[string]interface{}{
			{"lead_time_ms": -60000, "method": "Notification"},
		}
		rec := ta.request(t, http.MethodPost, "/events", body, true)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestUpdateEvent(t *testing.T) {
	ta := newTestApi(t)

	rec := ta.request(t, http.MethodPut, "/events/7", validEventBody(), true)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ta.viewModel.updated, 1)
	assert.Equal(t, int64(7), ta.viewModel.updated[0].ID)
	require.Len(t, ta.scheduler.scheduled, 1)
	assert.Equal(t, int64(7), ta.scheduler.scheduled[0].ID)
}

func TestDeleteEvent(t *testing.T) {
	ta := newTestApi(t)

	rec := ta.request(t, http.MethodDelete, "/events/7", nil, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{7}, ta.viewModel.deleted)
	// Registered alarms stay put; they fall out on their own at fire time.
	assert.Empty(t, ta.scheduler.scheduled)
}

func TestGetEvent(t *testing.T) {
	ta := newTestApi(t)
	ta.events.events[5] = &model.Event{
		ID: 5,
		EventCreate: model.EventCreate{
			Title:     "Dentist",
			Date:      civil.Date{Year: 2024, Month: time.June, Day: 1},
			StartTime: civil.Time{Hour: 10},
			EndTime:   civil.Time{Hour: 10, Minute: 30},
			Reminders: []model.Reminder{{LeadTime: time.Hour, Method: model.MethodNotification}},
		},
	}

	t.Run("found", func(t *testing.T) {
		rec := ta.request(t, http.MethodGet, "/events/5", nil, true)

		require.Equal(t, http.StatusOK, rec.Code)

		resp := &eventResp{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
		assert.Equal(t, int64(5), resp.ID)
		assert.Equal(t, "Dentist", resp.Title)
		require.Len(t, resp.Reminders, 1)
		assert.Equal(t, int64(3600000), resp.Reminders[0].LeadTimeMs)
	})

	t.Run("missing", func(t *testing.T) {
		rec := ta.request(t, http.MethodGet, "/events/99", nil, true)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("by date", func(t *testing.T) {
		rec := ta.request(t, http.MethodGet, "/events?date=2024-06-01", nil, true)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp []*eventResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, int64(5), resp[0].ID)
	})

	t.Run("bad date", func(t *testing.T) {
		rec := ta.request(t, http.MethodGet, "/events?date=01/06/2024", nil, true)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCalendar(t *testing.T) {
	t.Run("select date", func(t *testing.T) {
		ta := newTestApi(t)

		rec := ta.request(t, http.MethodPut, "/calendar/date", map[string]string{"date": "2024-06-15"}, true)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []civil.Date{{Year: 2024, Month: time.June, Day: 15}}, ta.viewModel.selected)
	})

	t.Run("select month", func(t *testing.T) {
		ta := newTestApi(t)

		rec := ta.request(t, http.MethodPut, "/calendar/month", map[string]int{"year": 2025, "month": 1}, true)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []calendar.MonthYear{{Year: 2025, Month: time.January}}, ta.viewModel.months)
	})

	t.Run("invalid month", func(t *testing.T) {
		ta := newTestApi(t)

		rec := ta.request(t, http.MethodPut, "/calendar/month", map[string]int{"year": 2025, "month": 13}, true)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Empty(t, ta.viewModel.months)
	})
}
