package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const dedupTTL = 48 * time.Hour

// Deduper answers whether this license/tier pair has already been notified
// today. Claim is first-writer-wins: a true return means the caller owns
// today's notification.
type Deduper interface {
	Claim(ctx context.Context, licenseID uuid.UUID, tier string, day time.Time) bool
}

type redisDeduper struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRedisDeduper(client *redis.Client, logger zerolog.Logger) Deduper {
	return &redisDeduper{client: client, logger: logger}
}

// Claim degrades open: if redis is unreachable the claim is granted. A
// duplicate notification beats a silently missed one.
func (d *redisDeduper) Claim(ctx context.Context, licenseID uuid.UUID, tier string, day time.Time) bool {
	key := fmt.Sprintf("renewal:notified:%s:%s:%s", licenseID, tier, day.Format("2006-01-02"))
	ok, err := d.client.SetNX(ctx, key, 1, dedupTTL).Result()
	if err != nil {
		d.logger.Warn().Err(err).Str("key", key).Msg("dedup check failed, proceeding without it")
		return true
	}
	return ok
}

// noopDeduper claims everything. Used when redis is not configured.
type noopDeduper struct{}

func NewNoopDeduper() Deduper { return noopDeduper{} }

func (noopDeduper) Claim(context.Context, uuid.UUID, string, time.Time) bool { return true }
