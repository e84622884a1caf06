package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	reportPrefix     = "reports:"
	reportGeneration = reportPrefix + "gen"
)

// ReportCache memoizes report results per (report, scope) key. Invalidate
// bumps a generation counter so every previously cached entry becomes
// unreachable at once.
type ReportCache struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewReportCache builds a cache; a zero ttl disables caching.
func NewReportCache(store Store, ttl time.Duration, logger *zap.Logger) *ReportCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCache{store: store, ttl: ttl, logger: logger}
}

// Fetch returns the cached value for (report, scopeKey) decoded into dst, or
// runs load, stores its result and decodes that. Store failures fall through
// to load.
func (c *ReportCache) Fetch(ctx context.Context, report, scopeKey string, dst any, load func(ctx context.Context) (any, error)) error {
	if c == nil || c.store == nil || c.ttl <= 0 {
		return assign(ctx, dst, load)
	}

	key, err := c.key(ctx, report, scopeKey)
	if err != nil {
		c.logger.Warn("report cache unavailable", zap.Error(err))
		return assign(ctx, dst, load)
	}

	raw, err := c.store.Get(ctx, key)
	if err == nil {
		if jsonErr := json.Unmarshal([]byte(raw), dst); jsonErr == nil {
			return nil
		}
	} else if !errors.Is(err, ErrMiss) {
		c.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
	}

	value, err := load(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, key, string(payload), c.ttl); err != nil {
		c.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return json.Unmarshal(payload, dst)
}

// Invalidate drops every cached report.
func (c *ReportCache) Invalidate(ctx context.Context) error {
	if c == nil || c.store == nil {
		return nil
	}
	_, err := c.store.Incr(ctx, reportGeneration)
	return err
}

func (c *ReportCache) key(ctx context.Context, report, scopeKey string) (string, error) {
	gen := "0"
	raw, err := c.store.Get(ctx, reportGeneration)
	switch {
	case err == nil:
		gen = raw
	case !errors.Is(err, ErrMiss):
		return "", err
	}
	if _, err := strconv.ParseInt(gen, 10, 64); err != nil {
		return "", err
	}
	return reportPrefix + gen + ":" + report + ":" + scopeKey, nil
}

func assign(ctx context.Context, dst any, load func(ctx context.Context) (any, error)) error {
	value, err := load(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dst)
}
