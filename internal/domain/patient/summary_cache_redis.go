package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const summaryKeyPrefix = "riskcare:summary:"

type redisSummaryCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

// NewRedisSummaryCache caches summaries as JSON under
// riskcare:summary:<clinician>:<generation>. The generation counter lives at
// riskcare:summary:gen:<clinician> and is bumped by Invalidate; superseded
// entries expire with their TTL.
func NewRedisSummaryCache(client goredis.Cmdable, ttl time.Duration) SummaryCache {
	return &redisSummaryCache{client: client, ttl: ttl}
}

func generationKey(clinicianID int64) string {
	return summaryKeyPrefix + "gen:" + strconv.FormatInt(clinicianID, 10)
}

func summaryKey(clinicianID, gen int64) string {
	return summaryKeyPrefix + strconv.FormatInt(clinicianID, 10) + ":" + strconv.FormatInt(gen, 10)
}

func (c *redisSummaryCache) Get(ctx context.Context, clinicianID int64) (*Summary, int64, error) {
	gen, err := c.client.Get(ctx, generationKey(clinicianID)).Int64()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, 0, fmt.Errorf("get summary generation: %w", err)
	}

	raw, err := c.client.Get(ctx, summaryKey(clinicianID, gen)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, gen, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get summary: %w", err)
	}

	var s Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, 0, fmt.Errorf("decode summary: %w", err)
	}
	return &s, gen, nil
}

func (c *redisSummaryCache) Set(ctx context.Context, s *Summary, gen int64) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey(s.ClinicianID, gen), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set summary: %w", err)
	}
	return nil
}

func (c *redisSummaryCache) Invalidate(ctx context.Context, clinicianID int64) error {
	if err := c.client.Incr(ctx, generationKey(clinicianID)).Err(); err != nil {
		return fmt.Errorf("invalidate summary: %w", err)
	}
	return nil
}
