package events

import (
	"context"
	"fmt"
)

// DeleteEvent is idempotent: deleting an absent id is not an error.
func (s *Service) DeleteEvent(ctx context.Context, id int64) error {
	if err := s.eventsRepository.DeleteEvent(ctx, s.db, id); err != nil {
		return fmt.Errorf("eventsRepository.DeleteEvent: %w", err)
	}

	return nil
}
