package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alem-hub/school-report/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrLeaderboardEmpty is returned when no ranking was published for a scope.
	ErrLeaderboardEmpty = errors.New("leaderboard_cache: leaderboard is empty")

	// ErrInvalidCount is returned when a non-positive count is requested.
	ErrInvalidCount = errors.New("leaderboard_cache: count must be positive")
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache stores best-performer rankings using Redis sorted sets.
//
// Layout per scope:
//   - Sorted set "leaderboard:avg:{scope}" maps member -> average score
//   - Hash "leaderboard:info:{scope}" maps member -> RankedPerformer JSON
//   - String "leaderboard:meta:{scope}" holds LeaderboardMeta JSON
//
// Members encode the inverted rank so that students with equal averages come
// back from ZREVRANGE in their original ranking order.
type LeaderboardCache struct {
	cache *Cache
}

// Key patterns for leaderboard cache.
const (
	keyLeaderboardAvg  = "leaderboard:avg:"
	keyLeaderboardInfo = "leaderboard:info:"
	keyLeaderboardMeta = "leaderboard:meta:"

	// defaultScope is used for the whole-school ranking.
	defaultScope = "school"

	memberWidth = 8
)

// LeaderboardMeta contains metadata about a published ranking.
type LeaderboardMeta struct {
	RunID         string    `json:"run_id"`
	Scope         string    `json:"scope"`
	PublishedAt   time.Time `json:"published_at"`
	TotalStudents int       `json:"total_students"`
}

// NewLeaderboardCache creates a new LeaderboardCache instance.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// AvgKey returns the sorted set key for a scope.
func AvgKey(scope string) string { return keyLeaderboardAvg + normalizeScope(scope) }

// InfoKey returns the hash key for a scope.
func InfoKey(scope string) string { return keyLeaderboardInfo + normalizeScope(scope) }

// MetaKey returns the metadata key for a scope.
func MetaKey(scope string) string { return keyLeaderboardMeta + normalizeScope(scope) }

func normalizeScope(scope string) string {
	scope = strings.Trim(scope, "/ ")
	if scope == "" {
		return defaultScope
	}
	return scope
}

// memberFor returns the sorted set member for a 1-based rank in a ranking of
// total entries. Higher ranks yield lexicographically greater members.
func memberFor(rank, total int) string {
	return fmt.Sprintf("%0*d", memberWidth, total-rank)
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Publish replaces the ranking stored for scope in a single transaction.
func (l *LeaderboardCache) Publish(ctx context.Context, scope string, ranking []query.RankedPerformer, runID string) error {
	avgKey, infoKey, metaKey := AvgKey(scope), InfoKey(scope), MetaKey(scope)
	ttl := l.cache.TTL()

	pipe := l.cache.Client().TxPipeline()
	pipe.Del(ctx, avgKey, infoKey)

	if len(ranking) > 0 {
		members := make([]redis.Z, 0, len(ranking))
		info := make(map[string]any, len(ranking))

		for _, entry := range ranking {
			member := memberFor(entry.Rank, len(ranking))
			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
			}
			members = append(members, redis.Z{Score: entry.Average, Member: member})
			info[member] = data
		}

		pipe.ZAdd(ctx, avgKey, members...)
		pipe.HSet(ctx, infoKey, info)
		if ttl > 0 {
			pipe.Expire(ctx, avgKey, ttl)
			pipe.Expire(ctx, infoKey, ttl)
		}
	}

	meta, err := json.Marshal(LeaderboardMeta{
		RunID:         runID,
		Scope:         normalizeScope(scope),
		PublishedAt:   time.Now().UTC(),
		TotalStudents: len(ranking),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	pipe.Set(ctx, metaKey, meta, ttl)

	_, err = pipe.Exec(ctx)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// READ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Top returns the first count entries of the ranking published for scope.
func (l *LeaderboardCache) Top(ctx context.Context, scope string, count int) ([]query.RankedPerformer, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}

	members, err := l.cache.Client().ZRevRange(ctx, AvgKey(scope), 0, int64(count-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrLeaderboardEmpty
	}

	values, err := l.cache.Client().HMGet(ctx, InfoKey(scope), members...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]query.RankedPerformer, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("leaderboard_cache: missing info for member %s", members[i])
		}
		var entry query.RankedPerformer
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Meta returns the metadata of the ranking published for scope.
func (l *LeaderboardCache) Meta(ctx context.Context, scope string) (*LeaderboardMeta, error) {
	var meta LeaderboardMeta
	if err := l.cache.Get(ctx, MetaKey(scope), &meta); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrLeaderboardEmpty
		}
		return nil, err
	}
	return &meta, nil
}
