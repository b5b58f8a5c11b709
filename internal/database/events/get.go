package events

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/mycalender/calendar-backend/internal/database"
	"github.com/mycalender/calendar-backend/internal/model"
)

func (*Repository) GetEventByID(ctx context.Context, q database.Queryable, id int64) (*model.Event, error) {
	qb := baseQuery.
		Where(sq.Eq{"id": id})

	dto := &eventDTO{}
	if err := q.Get(ctx, dto, qb); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNoRecord
		}
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapToEvent(dto)
}

// GetEventsByDate returns the day's events ordered by start time. ISO time
// strings sort lexicographically, so ordering happens in SQL.
func (*Repository) GetEventsByDate(ctx context.Context, q database.Queryable, date civil.Date) ([]*model.Event, error) {
	qb := baseQuery.
		Where(sq.Eq{"date": date.String()}).
		OrderBy("start_time")

	var dtos []*eventDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapEvents(dtos)
}

func (*Repository) GetAllEvents(ctx context.Context, q database.Queryable) ([]*model.Event, error) {
	qb := baseQuery.
		OrderBy("date")

	var dtos []*eventDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapEvents(dtos)
}
