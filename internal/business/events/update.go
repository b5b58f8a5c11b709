package events

import (
	"context"
	"fmt"

	"github.com/mycalender/calendar-backend/internal/model"
)

// UpdateEvent replaces the stored row wholesale; there is no partial-field
// update.
func (s *Service) UpdateEvent(ctx context.Context, event *model.Event) error {
	if _, err := s.eventsRepository.GetEventByID(ctx, s.db, event.ID); err != nil {
		return fmt.Errorf("get old event: %w", err)
	}

	if err := s.eventsRepository.UpdateEvent(ctx, s.db, event); err != nil {
		return fmt.Errorf("eventsRepository.UpdateEvent: %w", err)
	}

	return nil
}
