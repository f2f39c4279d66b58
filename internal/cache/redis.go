package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// InsightCache keeps assembled dashboard payloads and a per-user
// anomaly history in Redis so repeated dashboard loads skip the
// analytics pipeline. Everything here is a cache: a miss or a Redis
// outage is never fatal to a request.
type InsightCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(addr, password string, db int, ttl time.Duration) (*InsightCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     100,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &InsightCache{client: client, ttl: ttl}, nil
}

func dashboardKey(userID int64) string {
	return fmt.Sprintf("dashboard:%d", userID)
}

// StoreDashboard caches a user's assembled dashboard payload.
func (c *InsightCache) StoreDashboard(ctx context.Context, userID int64, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard: %w", err)
	}
	return c.client.Set(ctx, dashboardKey(userID), data, c.ttl).Err()
}

// GetDashboard returns the cached dashboard JSON, or ok=false on miss.
func (c *InsightCache) GetDashboard(ctx context.Context, userID int64) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, dashboardKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get dashboard: %w", err)
	}
	return data, true, nil
}

// InvalidateDashboard drops the cached dashboard after new activity is
// logged, so the next load recomputes with the fresh record.
func (c *InsightCache) InvalidateDashboard(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, dashboardKey(userID)).Err()
}

// StoreAnomaly appends a flagged report to the user's anomaly history.
// Reports live in a sorted set keyed by detection time and are kept
// well past the dashboard TTL so risk trends stay inspectable.
func (c *InsightCache) StoreAnomaly(ctx context.Context, userID int64, ts time.Time, report any) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal anomaly: %w", err)
	}

	key := fmt.Sprintf("anomaly:%d:%d", userID, ts.Unix())
	listKey := fmt.Sprintf("anomaly_list:%d", userID)
	retention := c.ttl * 24

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, retention)
	pipe.ZAdd(ctx, listKey, redis.Z{Score: float64(ts.Unix()), Member: key})
	pipe.Expire(ctx, listKey, retention)
	_, err = pipe.Exec(ctx)
	return err
}

// RecentAnomalies returns the keys of the user's latest flagged
// reports, newest first.
func (c *InsightCache) RecentAnomalies(ctx context.Context, userID int64, limit int) ([]string, error) {
	listKey := fmt.Sprintf("anomaly_list:%d", userID)
	results, err := c.client.ZRevRange(ctx, listKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get anomalies: %w", err)
	}
	return results, nil
}

// Ping checks Redis availability.
func (c *InsightCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the connection pool.
func (c *InsightCache) Close() error {
	return c.client.Close()
}

// Stats returns connection pool statistics for the /stats endpoint.
func (c *InsightCache) Stats() map[string]any {
	stats := c.client.PoolStats()
	return map[string]any{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}
