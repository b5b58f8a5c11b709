package events

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/mycalender/calendar-backend/internal/model"
)

type subscription struct {
	ctx   context.Context
	ch    chan []*model.Event
	fetch func(ctx context.Context) ([]*model.Event, error)
}

// WatchEventsByDate returns a channel receiving a fresh snapshot of the
// day's events (ordered by start time) after every mutation of the events
// table. The channel is closed when ctx is done.
func (s *Service) WatchEventsByDate(ctx context.Context, date civil.Date) <-chan []*model.Event {
	return s.watch(ctx, func(ctx context.Context) ([]*model.Event, error) {
		return s.eventsRepository.GetEventsByDate(ctx, s.db, date)
	})
}

// WatchAllEvents is WatchEventsByDate for the whole table, ordered by date.
func (s *Service) WatchAllEvents(ctx context.Context) <-chan []*model.Event {
	return s.watch(ctx, func(ctx context.Context) ([]*model.Event, error) {
		return s.eventsRepository.GetAllEvents(ctx, s.db)
	})
}

func (s *Service) watch(ctx context.Context, fetch func(ctx context.Context) ([]*model.Event, error)) <-chan []*model.Event {
	sub := &subscription{
		ctx: ctx,
		// Buffer of one: deliver replaces a pending stale snapshot, so a
		// slow subscriber always reads the latest state.
		ch:    make(chan []*model.Event, 1),
		fetch: fetch,
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = sub
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
		close(sub.ch)
	}()

	go s.deliver(id)

	return sub.ch
}

// refresh pushes a new snapshot to every subscriber; invoked by the change
// feed after each insert/update/delete.
func (s *Service) refresh() {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		go s.deliver(id)
	}
}

func (s *Service) deliver(id int64) {
	s.mu.Lock()
	sub, ok := s.subs[id]
	s.mu.Unlock()
	if !ok {
		return
	}

	events, err := sub.fetch(sub.ctx)
	if err != nil {
		if sub.ctx.Err() == nil {
			s.logger.Errorw("failed to refresh live query", "err", err)
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id]; !ok {
		return
	}

	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- events
}
