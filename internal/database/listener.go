package database

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const eventsChannel = "events_changed"

// Listener turns postgres NOTIFY announcements from the events trigger into
// in-process callbacks, so live-query subscribers see every mutation,
// including ones made by other processes.
type Listener struct {
	db     PGX
	logger *zap.SugaredLogger

	mu       sync.Mutex
	handlers []func()
}

func NewListener(db PGX, logger *zap.SugaredLogger) *Listener {
	return &Listener{
		db:     db,
		logger: logger,
	}
}

// OnChange registers fn to be called after every events table mutation.
// Registration is not revocable; handlers must be cheap and non-blocking.
func (l *Listener) OnChange(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, fn)
}

// Run listens until ctx is done, reacquiring the connection after errors.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Errorw("events listener failed, reconnecting", "err", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.db.GetPool(ctx).Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Conn().Exec(ctx, "listen "+eventsChannel); err != nil {
		return err
	}

	for {
		if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
			return err
		}

		l.notify()
	}
}

func (l *Listener) notify() {
	l.mu.Lock()
	handlers := make([]func(), len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}
