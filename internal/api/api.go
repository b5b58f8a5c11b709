package api

import (
	"context"
	"io"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mycalender/calendar-backend/internal/calendar"
	"github.com/mycalender/calendar-backend/internal/model"
	"go.uber.org/zap"
)

type Api struct {
	handler    http.Handler
	logger     *zap.SugaredLogger
	randSource io.Reader

	password           string
	sessionTokenLength int

	jwts          jwtManager
	refreshTokens refreshTokenRepository

	events    eventsService
	viewModel calendarViewModel
	scheduler reminderScheduler
}

type jwtManager interface {
	CreateToken(id int64) (string, error)
	GetIdFromToken(token string) (int64, error)
}

type refreshTokenRepository interface {
	Add(ctx context.Context, session string, id int64) error
	Get(ctx context.Context, session string) (int64, error)
	Refresh(ctx context.Context, old, new string) error
	Delete(ctx context.Context, session string) error
}

type eventsService interface {
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	GetEventsByDate(ctx context.Context, date civil.Date) ([]*model.Event, error)
	GetAllEvents(ctx context.Context) ([]*model.Event, error)
}

type calendarViewModel interface {
	AddEvent(ctx context.Context, info *model.EventCreate) (*model.Event, error)
	UpdateEvent(ctx context.Context, event *model.Event) error
	DeleteEvent(ctx context.Context, id int64) error
	SelectDate(date civil.Date)
	SelectMonth(my calendar.MonthYear)
	Snapshot() calendar.Snapshot
	Watch(ctx context.Context) <-chan calendar.Snapshot
}

type reminderScheduler interface {
	ScheduleEvent(e *model.Event)
}

func NewApi(
	logger *zap.SugaredLogger,
	randSource io.Reader,
	password string,
	sessionTokenLength int,
	jwts jwtManager,
	refreshTokens refreshTokenRepository,
	events eventsService,
	viewModel calendarViewModel,
	scheduler reminderScheduler,
) (*Api, error) {
	a := &Api{
		logger:             logger,
		randSource:         randSource,
		password:           password,
		sessionTokenLength: sessionTokenLength,
		jwts:               jwts,
		refreshTokens:      refreshTokens,
		events:             events,
		viewModel:          viewModel,
		scheduler:          scheduler,
	}
	a.setupHandler()

	return a, nil
}

func (a *Api) setupHandler() {
	middleware.DefaultLogger = func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a.logger.Debugw(r.URL.RequestURI(),
				"addr", r.RemoteAddr,
				"protocol", r.Proto,
				"method", r.Method,
			)
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewMux()

	r.Use(middleware.Logger, middleware.Recoverer, middleware.StripSlashes)
	r.NotFound(a.notFoundResponse)
	r.MethodNotAllowed(a.methodNotAllowedResponse)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signin", a.signInHandler)
		r.Post("/refresh", a.refreshTokenHandler)
		r.Post("/logout", a.logoutHandler)
	})

	r.With(a.auth).Route("/", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Post("/", a.createEventHandler)
			r.Get("/", a.getEventsHandler)
			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", a.getEventHandler)
				r.Put("/", a.updateEventHandler)
				r.Delete("/", a.deleteEventHandler)
			})
		})

		r.Route("/calendar", func(r chi.Router) {
			r.Get("/", a.getCalendarHandler)
			r.Put("/date", a.selectDateHandler)
			r.Put("/month", a.selectMonthHandler)
			r.Get("/stream", a.streamCalendarHandler)
		})
	})

	a.handler = r
}

func (a *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}
