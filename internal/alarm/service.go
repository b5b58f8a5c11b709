package alarm

import (
	"context"
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"github.com/mycalender/calendar-backend/internal/model"
	"go.uber.org/zap"
)

// Payload travels from registration to the handler when an alarm fires.
type Payload struct {
	EventID int64
	Title   string
	Method  model.DeliveryMethod
}

// Handler receives fired alarms. It runs on its own goroutine per firing.
type Handler func(ctx context.Context, key string, at time.Time, p Payload)

// Service is the process-local stand-in for a platform exact-alarm
// facility: one-shot wake-ups, keyed so re-registration supersedes instead
// of duplicating. An instant already in the past fires at the next sweep.
type Service struct {
	logger  *zap.SugaredLogger
	clk     clock.Clock
	sweep   time.Duration
	handler Handler

	mu    sync.Mutex
	queue *alarmQueue
}

func NewService(logger *zap.SugaredLogger, clk clock.Clock, sweep time.Duration, handler Handler) *Service {
	return &Service{
		logger:  logger,
		clk:     clk,
		sweep:   sweep,
		handler: handler,
		queue:   newAlarmQueue(),
	}
}

// Register schedules a one-shot alarm. Registering an existing key replaces
// its fire instant and payload.
func (s *Service) Register(key string, at time.Time, p Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.set(key, at, p)
}

// Pending reports the number of registered, not yet fired alarms.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Run sweeps for due alarms until ctx is done.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fireDue(ctx, s.clk.Now())
		}
	}
}

func (s *Service) fireDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	due := s.queue.popDue(now)
	s.mu.Unlock()

	for _, e := range due {
		s.logger.Debugw("alarm fired", "key", e.key, "at", e.at)
		go s.handler(ctx, e.key, e.at, e.payload)
	}
}
