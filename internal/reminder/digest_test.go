package reminder

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jmhodges/clock"
	"github.com/mycalender/calendar-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDayEvents struct {
	dates  []civil.Date
	events []*model.Event
}

func (f *fakeDayEvents) GetEventsByDate(_ context.Context, date civil.Date) ([]*model.Event, error) {
	f.dates = append(f.dates, date)
	return f.events, nil
}

type fakeDigestNotifier struct {
	titles []string
	bodies []string
}

func (f *fakeDigestNotifier) Post(_ context.Context, _ int64, title, body string) error {
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
	return nil
}

func newTestDigest(t *testing.T, events *fakeDayEvents, notifier *fakeDigestNotifier) *Digest {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Singapore")
	require.NoError(t, err)

	clk := clock.NewFake()
	// 23:30 UTC is already the next morning in the reference zone.
	clk.Set(time.Date(2024, time.May, 31, 23, 30, 0, 0, time.UTC))

	return NewDigest(events, notifier, loc, clk, zap.NewNop().Sugar())
}

func TestDigestSend(t *testing.T) {
	events := &fakeDayEvents{events: []*model.Event{
		{EventCreate: model.EventCreate{Title: "Standup", StartTime: civil.Time{Hour: 9, Minute: 30}}},
		{EventCreate: model.EventCreate{Title: "Dentist", StartTime: civil.Time{Hour: 14}}},
	}}
	notifier := &fakeDigestNotifier{}
	d := newTestDigest(t, events, notifier)

	d.Send(context.Background())

	require.Len(t, events.dates, 1)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.June, Day: 1}, events.dates[0])

	require.Len(t, notifier.titles, 1)
	assert.Equal(t, "2 events today", notifier.titles[0])
	assert.Equal(t, "09:30:00 Standup\n14:00:00 Dentist", notifier.bodies[0])
}

func TestDigestSkipsEmptyDay(t *testing.T) {
	notifier := &fakeDigestNotifier{}
	d := newTestDigest(t, &fakeDayEvents{}, notifier)

	d.Send(context.Background())

	assert.Empty(t, notifier.titles)
}

func TestDigestSingularTitle(t *testing.T) {
	events := &fakeDayEvents{events: []*model.Event{
		{EventCreate: model.EventCreate{Title: "Standup", StartTime: civil.Time{Hour: 9}}},
	}}
	notifier := &fakeDigestNotifier{}
	d := newTestDigest(t, events, notifier)

	d.Send(context.Background())

	require.Len(t, notifier.titles, 1)
	assert.Equal(t, "1 event today", notifier.titles[0])
}
