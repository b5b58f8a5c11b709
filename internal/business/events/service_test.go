package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/mycalender/calendar-backend/internal/database"
	"github.com/mycalender/calendar-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryRepository keeps events in a map and ignores the query executor, so
// the service can be exercised without a database.
type memoryRepository struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]*model.Event
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{events: map[int64]*model.Event{}}
}

func (r *memoryRepository) CreateEvent(_ context.Context, _ database.Queryable, event *model.Event) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := event.ID
	if id == 0 {
		r.nextID++
		id = r.nextID
	}
	stored := *event
	stored.ID = id
	r.events[id] = &stored
	return id, nil
}

func (r *memoryRepository) UpdateEvent(_ context.Context, _ database.Queryable, event *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[event.ID]; !ok {
		return model.ErrNoRecord
	}
	stored := *event
	r.events[event.ID] = &stored
	return nil
}

func (r *memoryRepository) DeleteEvent(_ context.Context, _ database.Queryable, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, id)
	return nil
}

func (r *memoryRepository) GetEventByID(_ context.Context, _ database.Queryable, id int64) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return nil, model.ErrNoRecord
	}
	return e, nil
}

func (r *memoryRepository) GetEventsByDate(_ context.Context, _ database.Queryable, date civil.Date) ([]*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res []*model.Event
	for _, e := range r.events {
		if e.Date == date {
			res = append(res, e)
		}
	}
	return res, nil
}

func (r *memoryRepository) GetAllEvents(_ context.Context, _ database.Queryable) ([]*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res []*model.Event
	for _, e := range r.events {
		res = append(res, e)
	}
	return res, nil
}

// manualFeed lets tests trigger change announcements by hand.
type manualFeed struct {
	handlers []func()
}

func (f *manualFeed) OnChange(fn func()) { f.handlers = append(f.handlers, fn) }

func (f *manualFeed) fire() {
	for _, fn := range f.handlers {
		fn()
	}
}

func newTestService() (*Service, *memoryRepository, *manualFeed) {
	repo := newMemoryRepository()
	feed := &manualFeed{}
	s := NewService(nil, zap.NewNop().Sugar(), repo, feed)
	return s, repo, feed
}

func testDate() civil.Date {
	return civil.Date{Year: 2024, Month: time.June, Day: 1}
}

func TestServiceCreateEvent(t *testing.T) {
	s, repo, _ := newTestService()

	event, err := s.CreateEvent(context.Background(), &model.EventCreate{Title: "Dentist", Date: testDate()})

	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.Len(t, repo.events, 1)
}

func TestServiceUpdateMissingEvent(t *testing.T) {
	s, _, _ := newTestService()

	err := s.UpdateEvent(context.Background(), &model.Event{ID: 99})

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNoRecord)
}

func TestServiceDeleteIsIdempotent(t *testing.T) {
	s, _, _ := newTestService()

	assert.NoError(t, s.DeleteEvent(context.Background(), 99))
}

func TestWatchEventsByDate(t *testing.T) {
	s, _, feed := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.WatchEventsByDate(ctx, testDate())

	// The initial snapshot arrives without any mutation.
	select {
	case events := <-ch:
		assert.Empty(t, events)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial snapshot")
	}

	_, err := s.CreateEvent(ctx, &model.EventCreate{Title: "Dentist", Date: testDate()})
	require.NoError(t, err)
	feed.fire()

	select {
	case events := <-ch:
		require.Len(t, events, 1)
		assert.Equal(t, "Dentist", events[0].Title)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for refreshed snapshot")
	}
}

func TestWatchFiltersOtherDates(t *testing.T) {
	s, _, feed := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.WatchEventsByDate(ctx, testDate())
	<-ch

	other := testDate()
	other.Day = 2
	_, err := s.CreateEvent(ctx, &model.EventCreate{Title: "Elsewhere", Date: other})
	require.NoError(t, err)
	feed.fire()

	select {
	case events := <-ch:
		assert.Empty(t, events)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for refreshed snapshot")
	}
}

func TestWatchClosesOnCancel(t *testing.T) {
	s, _, _ := newTestService()
	ctx, cancel := context.WithCancel(context.Background())

	ch := s.WatchAllEvents(ctx)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestWatchLatestWins(t *testing.T) {
	s, _, feed := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.WatchAllEvents(ctx)

	// Never read between mutations; the pending snapshot must be replaced,
	// not queued.
	for i := 0; i < 5; i++ {
		_, err := s.CreateEvent(ctx, &model.EventCreate{Title: "Busy day", Date: testDate()})
		require.NoError(t, err)
		feed.fire()
	}

	require.Eventually(t, func() bool {
		feed.fire()
		select {
		case events := <-ch:
			return len(events) == 5
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
