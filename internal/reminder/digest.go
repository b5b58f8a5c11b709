package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jmhodges/clock"
	"github.com/mycalender/calendar-backend/internal/model"
	"go.uber.org/zap"
)

type dayEventsSource interface {
	GetEventsByDate(ctx context.Context, date civil.Date) ([]*model.Event, error)
}

type digestNotifier interface {
	Post(ctx context.Context, eventID int64, title, body string) error
}

// Digest pushes a morning notification summarizing the day's events.
type Digest struct {
	events   dayEventsSource
	notifier digestNotifier
	loc      *time.Location
	clk      clock.Clock
	logger   *zap.SugaredLogger
}

func NewDigest(events dayEventsSource, notifier digestNotifier, loc *time.Location, clk clock.Clock, logger *zap.SugaredLogger) *Digest {
	return &Digest{
		events:   events,
		notifier: notifier,
		loc:      loc,
		clk:      clk,
		logger:   logger,
	}
}

// Send posts today's summary. Days without events post nothing.
func (d *Digest) Send(ctx context.Context) {
	today := civil.DateOf(d.clk.Now().In(d.loc))

	events, err := d.events.GetEventsByDate(ctx, today)
	if err != nil {
		d.logger.Errorw("failed to get today's events for digest", "date", today, "err", err)
		return
	}
	if len(events) == 0 {
		return
	}

	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = fmt.Sprintf("%s %s", e.StartTime, e.Title)
	}

	title := fmt.Sprintf("%d events today", len(events))
	if len(events) == 1 {
		title = "1 event today"
	}

	if err := d.notifier.Post(ctx, 0, title, strings.Join(lines, "\n")); err != nil {
		d.logger.Errorw("failed to send daily digest", "err", err)
	}
}
