package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/increment_progress.lua
var incrementProgressScript string

// Client mirrors deal progress counters for cheap reads. The mirror is
// advisory: the Postgres join transaction is the source of truth, Redis only
// serves progress queries.
type Client struct {
	rdb             *redis.Client
	incrementScript *redis.Script
}

// Progress is the cached counter pair for a deal
type Progress struct {
	DealID            int64 `json:"deal_id"`
	CurrentCount      int   `json:"current_count"`
	ParticipantsCount int   `json:"participants_count"`
	MOQ               int   `json:"moq"`
}

// NewClient creates a new Redis client with the mirror script loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:             rdb,
		incrementScript: redis.NewScript(incrementProgressScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func progressKey(dealID int64) string {
	return fmt.Sprintf("deal_progress:%d", dealID)
}

// InitProgress seeds the mirror for a deal
func (c *Client) InitProgress(ctx context.Context, dealID int64, currentCount, participants, moq int) error {
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, progressKey(dealID), "current_count", currentCount)
	pipe.HSet(ctx, progressKey(dealID), "participants_count", participants)
	pipe.HSet(ctx, progressKey(dealID), "moq", moq)

	_, err := pipe.Exec(ctx)
	return err
}

// SetProgressCounts overwrites the counter fields with known-good values,
// leaving moq alone. Used when reconciling against a post-commit snapshot.
func (c *Client) SetProgressCounts(ctx context.Context, dealID int64, currentCount, participants int) error {
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, progressKey(dealID), "current_count", currentCount)
	pipe.HSet(ctx, progressKey(dealID), "participants_count", participants)

	_, err := pipe.Exec(ctx)
	return err
}

// IncrementProgress applies a committed join's deltas to the mirror via Lua
// so both counters move together. Returns false when the deal has no mirror
// entry yet.
func (c *Client) IncrementProgress(ctx context.Context, dealID int64, quantity int) (bool, error) {
	result, err := c.incrementScript.Run(ctx, c.rdb, []string{progressKey(dealID)}, quantity).Result()
	if err != nil {
		return false, fmt.Errorf("increment progress script failed: %w", err)
	}

	newCount, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}

	return newCount >= 0, nil
}

// GetProgress reads the cached counters for a deal
func (c *Client) GetProgress(ctx context.Context, dealID int64) (*Progress, error) {
	result, err := c.rdb.HGetAll(ctx, progressKey(dealID)).Result()
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("progress not cached for deal %d", dealID)
	}

	current, _ := strconv.Atoi(result["current_count"])
	participants, _ := strconv.Atoi(result["participants_count"])
	moq, _ := strconv.Atoi(result["moq"])

	return &Progress{
		DealID:            dealID,
		CurrentCount:      current,
		ParticipantsCount: participants,
		MOQ:               moq,
	}, nil
}

// DropProgress removes the mirror entry for a terminal deal
func (c *Client) DropProgress(ctx context.Context, dealID int64) error {
	return c.rdb.Del(ctx, progressKey(dealID)).Err()
}

// SetJoinKey stores a join idempotency key with TTL
func (c *Client) SetJoinKey(ctx context.Context, key string, orderID int64, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("join_key:%s", key), orderID, ttl).Err()
}

// CheckJoinKey returns the order ID recorded for an idempotency key, or 0
func (c *Client) CheckJoinKey(ctx context.Context, key string) (int64, error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf("join_key:%s", key)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}
