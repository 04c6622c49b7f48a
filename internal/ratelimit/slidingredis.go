package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SlidingWindow keeps one sorted-set member per accepted event, scored by its
// arrival time in nanoseconds. Rejected events are removed again so a client
// hammering a closed window does not extend its own lockout.
type SlidingWindow struct {
	Client *redis.Client
	Prefix string
}

// Allow implements Allower. reset is when the oldest event in the window ages out.
func (l SlidingWindow) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	now := time.Now()
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, now.Add(window), nil
	}

	setKey := l.Prefix + key
	member := uuid.NewString()
	floor := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	var (
		card   *redis.IntCmd
		oldest *redis.ZSliceCmd
	)
	_, err := l.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, setKey, "-inf", floor)
		p.ZAdd(ctx, setKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
		card = p.ZCard(ctx, setKey)
		oldest = p.ZRangeWithScores(ctx, setKey, 0, 0)
		p.PExpire(ctx, setKey, window)
		return nil
	})
	if err != nil {
		return false, 0, now.Add(window), err
	}

	reset := now.Add(window)
	if first := oldest.Val(); len(first) == 1 {
		reset = time.Unix(0, int64(first[0].Score)).Add(window)
	}

	count := int(card.Val())
	if count > max {
		if err := l.Client.ZRem(ctx, setKey, member).Err(); err != nil {
			return false, 0, reset, err
		}
		return false, 0, reset, nil
	}
	return true, max - count, reset, nil
}
