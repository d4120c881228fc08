package infra_redis_leaderboard

import (
	"context"
	"fmt"

	"github.com/go-redis/redis"
)

// Driver keeps the all-time leaderboard in a single redis ZSET keyed by
// player name. Scores accumulate across games.
type Driver struct {
	client *redis.Client
	key    string
}

type Entry struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
}

func New(client *redis.Client, key string) *Driver {
	return &Driver{
		client: client,
		key:    key,
	}
}

func (d *Driver) Record(_ context.Context, scores map[string]int) error {
	for player, score := range scores {
		if score == 0 {
			continue
		}
		if err := d.client.ZIncrBy(d.key, float64(score), player).Err(); err != nil {
			return fmt.Errorf("failed to record score for %s: %w", player, err)
		}
	}
	return nil
}

func (d *Driver) Top(_ context.Context, n int) ([]Entry, error) {
	members, err := d.client.ZRevRangeWithScores(d.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(members))
	for _, m := range members {
		name, _ := m.Member.(string)
		entries = append(entries, Entry{
			Player: name,
			Score:  int(m.Score),
		})
	}
	return entries, nil
}
