package events

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/mycalender/calendar-backend/internal/database"
	"github.com/mycalender/calendar-backend/internal/model"
)

// UpdateEvent replaces every field of the row matching the event's id.
func (*Repository) UpdateEvent(ctx context.Context, q database.Queryable, event *model.Event) error {
	times, methods, err := encodeReminders(event.Reminders)
	if err != nil {
		return err
	}

	qb := database.PSQL.
		Update(database.EventsTable).
		SetMap(map[string]interface{}{
			"title":            event.Title,
			"note":             event.Note,
			"date":             event.Date.String(),
			"start_time":       event.StartTime.String(),
			"end_time":         event.EndTime.String(),
			"reminder_times":   times,
			"reminder_methods": methods,
		}).
		Where(sq.Eq{"id": event.ID})

	if _, err := q.Exec(ctx, qb); err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	return nil
}
