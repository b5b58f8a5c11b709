package events

import (
	"context"
	"fmt"

	"github.com/mycalender/calendar-backend/internal/database"
	"github.com/mycalender/calendar-backend/internal/model"
)

// CreateEvent persists the event and returns the assigned id. An event that
// already carries an id is written with it and replaces the existing row on
// conflict.
func (*Repository) CreateEvent(ctx context.Context, q database.Queryable, event *model.Event) (int64, error) {
	times, methods, err := encodeReminders(event.Reminders)
	if err != nil {
		return 0, err
	}

	columns := []string{
		"title",
		"note",
		"date",
		"start_time",
		"end_time",
		"reminder_times",
		"reminder_methods",
	}
	values := []interface{}{
		event.Title,
		event.Note,
		event.Date.String(),
		event.StartTime.String(),
		event.EndTime.String(),
		times,
		methods,
	}

	qb := database.PSQL.
		Insert(database.EventsTable).
		Columns(columns...).
		Values(values...).
		Suffix("returning id")

	if event.ID != 0 {
		qb = database.PSQL.
			Insert(database.EventsTable).
			Columns(append([]string{"id"}, columns...)...).
			Values(append([]interface{}{event.ID}, values...)...).
			Suffix(`on conflict (id) do update set
				title = excluded.title,
				note = excluded.note,
				date = excluded.date,
				start_time = excluded.start_time,
				end_time = excluded.end_time,
				reminder_times = excluded.reminder_times,
				reminder_methods = excluded.reminder_methods
				returning id`)
	}

	var id int64
	if err := q.Get(ctx, &id, qb); err != nil {
		return 0, fmt.Errorf("SQL request: %w", err)
	}

	return id, nil
}
