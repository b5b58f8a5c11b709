package events

import (
	"context"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/mycalender/calendar-backend/internal/database"
	"github.com/mycalender/calendar-backend/internal/model"
	"go.uber.org/zap"
)

// Service is the unit upper layers depend on instead of the storage engine:
// a pass-through over the events repository plus the live-query surface.
type Service struct {
	db               database.PGX
	logger           *zap.SugaredLogger
	eventsRepository eventsRepository

	mu     sync.Mutex
	subs   map[int64]*subscription
	nextID int64
}

type eventsRepository interface {
	CreateEvent(ctx context.Context, q database.Queryable, event *model.Event) (int64, error)
	UpdateEvent(ctx context.Context, q database.Queryable, event *model.Event) error
	DeleteEvent(ctx context.Context, q database.Queryable, id int64) error
	GetEventByID(ctx context.Context, q database.Queryable, id int64) (*model.Event, error)
	GetEventsByDate(ctx context.Context, q database.Queryable, date civil.Date) ([]*model.Event, error)
	GetAllEvents(ctx context.Context, q database.Queryable) ([]*model.Event, error)
}

// changeFeed announces events table mutations, local or cross-process.
type changeFeed interface {
	OnChange(fn func())
}

func NewService(db database.PGX, logger *zap.SugaredLogger, repo eventsRepository, feed changeFeed) *Service {
	s := &Service{
		db:               db,
		logger:           logger,
		eventsRepository: repo,
		subs:             map[int64]*subscription{},
	}
	feed.OnChange(s.refresh)

	return s
}

func (s *Service) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	return s.eventsRepository.GetEventByID(ctx, s.db, id)
}

func (s *Service) GetEventsByDate(ctx context.Context, date civil.Date) ([]*model.Event, error) {
	return s.eventsRepository.GetEventsByDate(ctx, s.db, date)
}

func (s *Service) GetAllEvents(ctx context.Context) ([]*model.Event, error) {
	return s.eventsRepository.GetAllEvents(ctx, s.db)
}
