package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/gomodule/redigo/redis"
	"github.com/mycalender/calendar-backend/internal/config"
	"go.uber.org/zap"
)

const deliveredPrefix = "delivered:"

// DeliveryLogRepository records which reminder firings were already
// delivered, keeping rearm passes from re-sending them. Entries expire on
// their own after the configured TTL.
type DeliveryLogRepository struct {
	pool   *redis.Pool
	logger *zap.SugaredLogger
}

func NewDeliveryLogRepository(pool *redis.Pool, logger *zap.SugaredLogger) *DeliveryLogRepository {
	return &DeliveryLogRepository{
		pool:   pool,
		logger: logger,
	}
}

// MarkDelivered records the firing and reports whether this was the first
// delivery of that key.
func (r *DeliveryLogRepository) MarkDelivered(ctx context.Context, key string) (bool, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return false, fmt.Errorf("get redis connection: %w", err)
	}
	defer conn.Close()

	_, err = redis.String(conn.Do("SET", deliveredPrefix+key, 1, "EX", int(config.DeliveryLogTTL().Seconds()), "NX"))
	if errors.Is(err, redis.ErrNil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("SET delivery mark: %w", err)
	}

	return true, nil
}
