package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/veltapay/approval-engine/internal/domain"
)

const redisKeyPrefix = "approval:idem"

// Inputs are the immutable identifying fields of a creation request. Two
// requests with identical inputs fingerprint to the same key.
type Inputs struct {
	Kind           domain.SubjectKind
	OrderType      domain.OrderType
	UserID         uuid.UUID
	ConversationID string
	Purpose        string // game code for loads, payment method otherwise
	AmountMicros   int64
}

// Fingerprint computes the deterministic dedup key. The field separator is
// part of the hash input so adjacent fields can never collide.
func Fingerprint(in Inputs) string {
	parts := []string{
		string(in.Kind),
		string(in.OrderType),
		in.UserID.String(),
		in.ConversationID,
		in.Purpose,
		strconv.FormatInt(in.AmountMicros, 10),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Cache fronts the database unique constraint with a Redis lookup so that
// hot duplicate retries are answered without touching the intake table. The
// constraint stays the authority; the cache is advisory only.
type Cache struct {
	redis redis.Cmdable
	ttl   time.Duration
}

// NewCache builds a cache; a nil client disables it.
func NewCache(client redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{redis: client, ttl: ttl}
}

// Lookup returns the subject id previously stored under a fingerprint.
func (c *Cache) Lookup(ctx context.Context, key string) (uuid.UUID, bool) {
	if c == nil || c.redis == nil {
		return uuid.Nil, false
	}
	val, err := c.redis.Get(ctx, redisKey(key)).Result()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("idempotency cache lookup failed", zap.Error(err))
		}
		return uuid.Nil, false
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Remember stores the fingerprint -> subject id mapping, best effort.
func (c *Cache) Remember(ctx context.Context, key string, id uuid.UUID) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, redisKey(key), id.String(), c.ttl).Err(); err != nil {
		zap.L().Warn("idempotency cache set failed", zap.Error(err))
	}
}

func redisKey(key string) string {
	return fmt.Sprintf("%s:%s", redisKeyPrefix, key)
}
