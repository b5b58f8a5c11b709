package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/jmhodges/clock"
	"github.com/mycalender/calendar-backend/internal/alarm"
	"github.com/mycalender/calendar-backend/internal/model"
	"go.uber.org/zap"
)

// rearmGrace bounds how far in the past a fire instant may lie and still be
// re-registered during a rearm pass.
const rearmGrace = time.Minute

type alarmRegistry interface {
	Register(key string, at time.Time, p alarm.Payload)
}

type eventsSource interface {
	GetAllEvents(ctx context.Context) ([]*model.Event, error)
}

// Scheduler registers one alarm per (event, reminder) pair.
type Scheduler struct {
	alarms alarmRegistry
	events eventsSource
	loc    *time.Location
	clk    clock.Clock
	logger *zap.SugaredLogger
}

func NewScheduler(alarms alarmRegistry, events eventsSource, loc *time.Location, clk clock.Clock, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		alarms: alarms,
		events: events,
		loc:    loc,
		clk:    clk,
		logger: logger,
	}
}

// ScheduleEvent registers alarms for every reminder of the event. Called on
// save, so existing registrations for the same event are replaced in place.
func (s *Scheduler) ScheduleEvent(e *model.Event) {
	for i, r := range e.Reminders {
		key := AlarmKey(e.ID, i)
		at := FireTime(&e.EventCreate, r.LeadTime, s.loc)

		s.alarms.Register(key, at, alarm.Payload{
			EventID: e.ID,
			Title:   e.Title,
			Method:  r.Method,
		})
		s.logger.Debugw("registered reminder alarm",
			"key", key,
			"at", at,
			"method", r.Method,
		)
	}
}

// RearmAll re-derives alarms from the durable event table. Runs at process
// start and nightly, so registrations survive restarts. Instants older than
// the grace window are skipped rather than fired late.
func (s *Scheduler) RearmAll(ctx context.Context) error {
	events, err := s.events.GetAllEvents(ctx)
	if err != nil {
		return fmt.Errorf("get all events: %w", err)
	}

	cutoff := s.clk.Now().Add(-rearmGrace)
	rearmed := 0
	for _, e := range events {
		for i, r := range e.Reminders {
			at := FireTime(&e.EventCreate, r.LeadTime, s.loc)
			if at.Before(cutoff) {
				continue
			}

			s.alarms.Register(AlarmKey(e.ID, i), at, alarm.Payload{
				EventID: e.ID,
				Title:   e.Title,
				Method:  r.Method,
			})
			rearmed++
		}
	}

	s.logger.Infow("rearmed reminder alarms", "events", len(events), "alarms", rearmed)
	return nil
}
