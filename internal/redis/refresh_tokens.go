package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/gomodule/redigo/redis"
	"github.com/mycalender/calendar-backend/internal/config"
	"github.com/mycalender/calendar-backend/internal/model"
	"go.uber.org/zap"
)

const sessionPrefix = "session:"

type RefreshTokenRepository struct {
	pool   *redis.Pool
	logger *zap.SugaredLogger
}

func NewRefreshTokenRepository(pool *redis.Pool, logger *zap.SugaredLogger) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		pool:   pool,
		logger: logger,
	}
}

// Add stores the session with the configured TTL; expiry is redis-side, no
// separate cleanup is needed.
func (r *RefreshTokenRepository) Add(ctx context.Context, session string, id int64) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("get redis connection: %w", err)
	}
	defer conn.Close()

	reply, err := redis.String(conn.Do("SET", sessionPrefix+session, id, "EX", int(config.SessionTTl().Seconds()), "NX"))
	if errors.Is(err, redis.ErrNil) {
		return model.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("SET session: %w", err)
	}
	if reply != "OK" {
		return fmt.Errorf("unexpected SET reply: %v", reply)
	}

	return nil
}

func (r *RefreshTokenRepository) Get(ctx context.Context, session string) (int64, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("get redis connection: %w", err)
	}
	defer conn.Close()

	id, err := redis.Int64(conn.Do("GET", sessionPrefix+session))
	if errors.Is(err, redis.ErrNil) {
		return 0, model.ErrNoRecord
	}
	if err != nil {
		return 0, fmt.Errorf("GET session: %w", err)
	}

	return id, nil
}

// Refresh atomically-enough replaces old with new: the new session is
// written first, so a crash in between leaves a usable session rather than
// none.
func (r *RefreshTokenRepository) Refresh(ctx context.Context, old, new string) error {
	id, err := r.Get(ctx, old)
	if err != nil {
		return err
	}

	if err := r.Add(ctx, new, id); err != nil {
		return err
	}

	return r.Delete(ctx, old)
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, session string) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("get redis connection: %w", err)
	}
	defer conn.Close()

	deleted, err := redis.Int(conn.Do("DEL", sessionPrefix+session))
	if err != nil {
		return fmt.Errorf("DEL session: %w", err)
	}
	if deleted == 0 {
		return model.ErrNoRecord
	}

	return nil
}
