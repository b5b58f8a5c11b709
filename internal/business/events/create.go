package events

import (
	"context"
	"fmt"

	"github.com/mycalender/calendar-backend/internal/model"
)

func (s *Service) CreateEvent(ctx context.Context, info *model.EventCreate) (*model.Event, error) {
	event := &model.Event{EventCreate: *info}

	id, err := s.eventsRepository.CreateEvent(ctx, s.db, event)
	if err != nil {
		return nil, fmt.Errorf("eventsRepository.CreateEvent: %w", err)
	}

	event.ID = id
	return event, nil
}
