package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	statsPrefix     = "circulation:stats:"
	statsSeenPrefix = "circulation:stats:seen:"

	fieldBorrows = "borrows"
	fieldReturns = "returns"

	// statsDedupWindow is how long a processed event id is remembered.
	statsDedupWindow = 7 * 24 * time.Hour
)

// recordEvent increments one counter of an item's stats hash unless the
// event id has been seen before. Returns 1 when applied, 0 for a duplicate.
//
// KEYS[1] stats hash, KEYS[2] seen marker
// ARGV[1] counter field, ARGV[2] marker ttl in seconds, ARGV[3] event time
var recordEvent = redis.NewScript(`
if not redis.call('SET', KEYS[2], '1', 'NX', 'EX', ARGV[2]) then
  return 0
end
redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
redis.call('HSET', KEYS[1], 'last_event_at', ARGV[3])
return 1
`)

// ItemStats are lifetime lending counters for one item.
type ItemStats struct {
	ItemID      uuid.UUID
	Borrows     int64
	Returns     int64
	LastEventAt *time.Time
}

// LoanStats maintains per-item lending counters from loan events. Counters
// are advisory; availability is always computed from the ledger.
type LoanStats struct {
	client *redis.Client
}

// NewLoanStats returns stats backed by r.
func NewLoanStats(r *RedisClient) *LoanStats {
	return &LoanStats{client: r.Client()}
}

// RecordBorrow counts a loan.opened event. Replays of the same event id are
// ignored and report false.
func (s *LoanStats) RecordBorrow(ctx context.Context, eventID, itemID uuid.UUID, at time.Time) (bool, error) {
	return s.record(ctx, eventID, itemID, fieldBorrows, at)
}

// RecordReturn counts a loan.closed event.
func (s *LoanStats) RecordReturn(ctx context.Context, eventID, itemID uuid.UUID, at time.Time) (bool, error) {
	return s.record(ctx, eventID, itemID, fieldReturns, at)
}

func (s *LoanStats) record(ctx context.Context, eventID, itemID uuid.UUID, field string, at time.Time) (bool, error) {
	keys := []string{statsPrefix + itemID.String(), statsSeenPrefix + eventID.String()}
	n, err := recordEvent.Run(ctx, s.client, keys,
		field, int64(statsDedupWindow/time.Second), at.UTC().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return false, fmt.Errorf("record %s for item %s: %w", field, itemID, err)
	}
	return n == 1, nil
}

// Get returns the counters for itemID. Items without events yield zeros.
func (s *LoanStats) Get(ctx context.Context, itemID uuid.UUID) (*ItemStats, error) {
	vals, err := s.client.HGetAll(ctx, statsPrefix+itemID.String()).Result()
	if err != nil {
		return nil, fmt.Errorf("get stats for item %s: %w", itemID, err)
	}

	stats := &ItemStats{ItemID: itemID}
	if v, ok := vals[fieldBorrows]; ok {
		if stats.Borrows, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("parse %s: %w", fieldBorrows, err)
		}
	}
	if v, ok := vals[fieldReturns]; ok {
		if stats.Returns, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("parse %s: %w", fieldReturns, err)
		}
	}
	if v, ok := vals["last_event_at"]; ok {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("parse last_event_at: %w", err)
		}
		stats.LastEventAt = &t
	}
	return stats, nil
}

// Forget drops the counters of a removed item.
func (s *LoanStats) Forget(ctx context.Context, itemID uuid.UUID) error {
	if err := s.client.Del(ctx, statsPrefix+itemID.String()).Err(); err != nil {
		return fmt.Errorf("forget stats for item %s: %w", itemID, err)
	}
	return nil
}
