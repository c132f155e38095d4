// Package redis caches built sprint boards.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/usecase"
)

const scanBatch = 100

type boardCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewBoardCache creates a Redis-backed board cache. Entries expire after ttl
// and are dropped whenever the owner's schedule changes.
func NewBoardCache(client *redislib.Client, ttl time.Duration) usecase.BoardCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &boardCache{
		client: client,
		prefix: "board:",
		ttl:    ttl,
	}
}

func (c *boardCache) Get(ctx context.Context, ownerID, sprintID int64) (*domain.Board, bool, error) {
	result, err := c.client.Get(ctx, c.key(ownerID, sprintID)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	board, err := decodeBoard(result)
	if err != nil {
		return nil, false, err
	}
	return board, true, nil
}

func (c *boardCache) Set(ctx context.Context, ownerID int64, board *domain.Board) error {
	if board == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(board)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(ownerID, board.Sprint.ID), payload, c.ttl).Err()
}

func (c *boardCache) InvalidateOwner(ctx context.Context, ownerID int64) error {
	iter := c.client.Scan(ctx, 0, c.ownerPattern(ownerID), scanBatch).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *boardCache) key(ownerID, sprintID int64) string {
	return fmt.Sprintf("%s%d:%d", c.prefix, ownerID, sprintID)
}

func (c *boardCache) ownerPattern(ownerID int64) string {
	return fmt.Sprintf("%s%d:*", c.prefix, ownerID)
}

func decodeBoard(payload []byte) (*domain.Board, error) {
	var board domain.Board
	if err := json.Unmarshal(payload, &board); err != nil {
		return nil, err
	}
	return &board, nil
}
