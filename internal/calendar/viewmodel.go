package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jmhodges/clock"
	"github.com/mycalender/calendar-backend/internal/model"
	"go.uber.org/zap"
)

// MonthYear is the calendar's visible month, pure navigation state.
type MonthYear struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Snapshot is one consistent view of the four observable cells.
type Snapshot struct {
	SelectedDate          civil.Date
	CurrentMonthYear      MonthYear
	EventsForSelectedDate []*model.Event
	AllEvents             []*model.Event
}

type eventsService interface {
	CreateEvent(ctx context.Context, info *model.EventCreate) (*model.Event, error)
	UpdateEvent(ctx context.Context, event *model.Event) error
	DeleteEvent(ctx context.Context, id int64) error
	WatchEventsByDate(ctx context.Context, date civil.Date) <-chan []*model.Event
	WatchAllEvents(ctx context.Context) <-chan []*model.Event
}

// ViewModel mediates all event mutations and holds the observable calendar
// state. Mutations delegate to the events service and rely on the live
// queries for refreshing derived state; they do not re-fetch manually.
type ViewModel struct {
	logger *zap.SugaredLogger
	events eventsService
	clk    clock.Clock
	loc    *time.Location

	// lifetime of the view-model; by-date subscriptions derive from it.
	ctx context.Context

	mu                    sync.Mutex
	selectedDate          civil.Date
	currentMonthYear      MonthYear
	eventsForSelectedDate []*model.Event
	allEvents             []*model.Event
	cancelByDate          context.CancelFunc

	watchers    map[int64]chan Snapshot
	nextWatcher int64
}

// New builds the view-model with today selected and the current month
// visible, subscribes the all-events live query for its whole lifetime, and
// opens the first by-date subscription.
func New(ctx context.Context, logger *zap.SugaredLogger, events eventsService, clk clock.Clock, loc *time.Location) *ViewModel {
	today := civil.DateOf(clk.Now().In(loc))

	vm := &ViewModel{
		logger:       logger,
		events:       events,
		clk:          clk,
		loc:          loc,
		ctx:          ctx,
		selectedDate: today,
		currentMonthYear: MonthYear{
			Year:  today.Year,
			Month: today.Month,
		},
		watchers: map[int64]chan Snapshot{},
	}

	go vm.consumeAll(events.WatchAllEvents(ctx))
	vm.SelectDate(today)

	return vm
}

// SelectDate sets the selected date and re-subscribes the by-date live
// query, replacing the previous subscription so exactly one is active.
func (vm *ViewModel) SelectDate(date civil.Date) {
	vm.mu.Lock()
	if vm.cancelByDate != nil {
		vm.cancelByDate()
	}
	subCtx, cancel := context.WithCancel(vm.ctx)
	vm.cancelByDate = cancel
	vm.selectedDate = date
	vm.eventsForSelectedDate = nil
	vm.mu.Unlock()

	go vm.consumeByDate(subCtx, vm.events.WatchEventsByDate(subCtx, date))
	vm.publish()
}

// SelectMonth changes the visible month only; it does not touch the
// selected date.
func (vm *ViewModel) SelectMonth(my MonthYear) {
	vm.mu.Lock()
	vm.currentMonthYear = my
	vm.mu.Unlock()
	vm.publish()
}

func (vm *ViewModel) AddEvent(ctx context.Context, info *model.EventCreate) (*model.Event, error) {
	event, err := vm.events.CreateEvent(ctx, info)
	if err != nil {
		vm.logger.Errorw("failed to add event", "err", err)
		return nil, fmt.Errorf("add event: %w", err)
	}

	return event, nil
}

func (vm *ViewModel) UpdateEvent(ctx context.Context, event *model.Event) error {
	if err := vm.events.UpdateEvent(ctx, event); err != nil {
		vm.logger.Errorw("failed to update event", "id", event.ID, "err", err)
		return fmt.Errorf("update event: %w", err)
	}

	return nil
}

func (vm *ViewModel) DeleteEvent(ctx context.Context, id int64) error {
	if err := vm.events.DeleteEvent(ctx, id); err != nil {
		vm.logger.Errorw("failed to delete event", "id", id, "err", err)
		return fmt.Errorf("delete event: %w", err)
	}

	return nil
}

func (vm *ViewModel) Snapshot() Snapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.snapshotLocked()
}

// Watch streams a snapshot after every state change, latest-wins on a slow
// reader. The channel closes when ctx is done.
func (vm *ViewModel) Watch(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	vm.mu.Lock()
	vm.nextWatcher++
	id := vm.nextWatcher
	vm.watchers[id] = ch
	ch <- vm.snapshotLocked()
	vm.mu.Unlock()

	go func() {
		<-ctx.Done()
		vm.mu.Lock()
		defer vm.mu.Unlock()
		delete(vm.watchers, id)
		close(ch)
	}()

	return ch
}

func (vm *ViewModel) consumeByDate(ctx context.Context, ch <-chan []*model.Event) {
	for events := range ch {
		vm.mu.Lock()
		// A canceled subscription may still have a snapshot in flight;
		// never let it overwrite the replacement's state.
		if ctx.Err() != nil {
			vm.mu.Unlock()
			return
		}
		vm.eventsForSelectedDate = events
		vm.mu.Unlock()
		vm.publish()
	}
}

func (vm *ViewModel) consumeAll(ch <-chan []*model.Event) {
	for events := range ch {
		vm.mu.Lock()
		vm.allEvents = events
		vm.mu.Unlock()
		vm.publish()
	}
}

func (vm *ViewModel) snapshotLocked() Snapshot {
	return Snapshot{
		SelectedDate:          vm.selectedDate,
		CurrentMonthYear:      vm.currentMonthYear,
		EventsForSelectedDate: vm.eventsForSelectedDate,
		AllEvents:             vm.allEvents,
	}
}

func (vm *ViewModel) publish() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	snap := vm.snapshotLocked()
	for _, ch := range vm.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
