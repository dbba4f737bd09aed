//go:build integration

package patient_test

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/mock/gomock"

	"github.com/ehr/riskcare/internal/domain/patient"
	"github.com/ehr/riskcare/internal/domain/patient/mocks"
	"github.com/ehr/riskcare/internal/platform/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := redis.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisSummaryCache(t *testing.T) {
	client := startRedis(t)
	cache := patient.NewRedisSummaryCache(client, time.Minute)
	ctx := context.Background()

	got, gen, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int64(0), gen)

	want := &patient.Summary{ClinicianID: 7, Total: 3, High: 1, Medium: 1, Low: 1}
	require.NoError(t, cache.Set(ctx, want, gen))

	got, gen, err = cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, int64(0), gen)

	ttl, err := client.TTL(ctx, "riskcare:summary:7:0").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.Invalidate(ctx, 7))
	got, gen, err = cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int64(1), gen)
}

func TestRedisSummaryCache_FillRacingInvalidateIsNeverServed(t *testing.T) {
	client := startRedis(t)
	cache := patient.NewRedisSummaryCache(client, time.Minute)
	ctx := context.Background()

	// A reader misses and counts before a write commits.
	_, gen, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	stale := &patient.Summary{ClinicianID: 7, Total: 0}

	// The write commits and invalidates before the reader stores its counts.
	require.NoError(t, cache.Invalidate(ctx, 7))
	require.NoError(t, cache.Set(ctx, stale, gen))

	got, _, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got, "counts read before the write must not be served")

	other, _, err := cache.Get(ctx, 8)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestRedisSummaryCache_ServiceInvalidatesOnWrite(t *testing.T) {
	client := startRedis(t)
	cache := patient.NewRedisSummaryCache(client, time.Minute)
	ctx := context.Background()

	scorer := mocks.NewMockScorer(gomock.NewController(t))
	scorer.EXPECT().Score(gomock.Any(), gomock.Any()).Return(highRisk, nil)
	svc := patient.NewService(patient.NewMemoryRepo(), scorer, patient.WithSummaryCache(cache))

	first, err := svc.Summary(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Total)

	exists, err := client.Exists(ctx, "riskcare:summary:7:0").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	_, err = svc.Create(ctx, scenarioInput())
	require.NoError(t, err)

	gen, err := client.Get(ctx, "riskcare:summary:gen:7").Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	_, err = client.Get(ctx, "riskcare:summary:7:1").Result()
	assert.ErrorIs(t, err, goredis.Nil)

	second, err := svc.Summary(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Total)
	assert.Equal(t, 1, second.High)
}
