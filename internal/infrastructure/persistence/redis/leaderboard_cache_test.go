package redis

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/school-report/internal/application/query"
	"github.com/alem-hub/school-report/internal/domain/school"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "leaderboard:avg:school", AvgKey(""))
	assert.Equal(t, "leaderboard:avg:school", AvgKey("/"))
	assert.Equal(t, "leaderboard:info:primaria/primero", InfoKey("primaria/primero/"))
	assert.Equal(t, "leaderboard:meta:secundaria", MetaKey(" secundaria"))
}

func TestMemberFor_OrdersByRank(t *testing.T) {
	// ZREVRANGE returns equal scores in descending member order.
	first, second, last := memberFor(1, 12), memberFor(2, 12), memberFor(12, 12)

	assert.Greater(t, first, second)
	assert.Greater(t, second, last)
	assert.Len(t, first, memberWidth)
}

func ranked(rank int, name string, avg float64) query.RankedPerformer {
	return query.RankedPerformer{
		Rank: rank,
		Performer: query.Performer{
			Name: name, Gender: school.GenderFemale,
			Stage: school.StagePrimaria, Grade: "primero", Course: "A",
			Average: avg,
		},
	}
}

func TestLeaderboardCache_PublishAndTop(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	cfg := DefaultConfig()
	host, port := splitAddr(t, addr)
	cfg.Host, cfg.Port = host, port
	cfg.DB = 15

	ctx := context.Background()
	cache, err := NewCache(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	lb := NewLeaderboardCache(cache)
	ranking := []query.RankedPerformer{
		ranked(1, "Sofia", 4.75),
		ranked(2, "Ana", 4.25),
		ranked(3, "Marta", 4.25),
		ranked(4, "Luis", 3),
	}
	scope := "test/primaria"
	t.Cleanup(func() { cache.Client().Del(ctx, AvgKey(scope), InfoKey(scope), MetaKey(scope)) })

	require.NoError(t, lb.Publish(ctx, scope, ranking, "run-1"))

	top, err := lb.Top(ctx, scope, 3)
	require.NoError(t, err)
	assert.Equal(t, ranking[:3], top)

	meta, err := lb.Meta(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, "run-1", meta.RunID)
	assert.Equal(t, 4, meta.TotalStudents)

	// Republishing replaces the previous ranking.
	require.NoError(t, lb.Publish(ctx, scope, ranking[3:], "run-2"))
	top, err = lb.Top(ctx, scope, 10)
	require.NoError(t, err)
	assert.Len(t, top, 1)
	assert.Equal(t, "Luis", top[0].Name)
}
