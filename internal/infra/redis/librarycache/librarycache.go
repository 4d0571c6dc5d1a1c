package infra_library_cache

import (
	"encoding/json"
	"time"

	"github.com/go-redis/redis"

	"github.com/coplay/gamenight/core/internal/model"
)

// Driver caches fetched libraries per user so repeated group computations
// don't hammer the platform APIs. Entries expire via TTL; a miss or a
// broken payload is reported as a miss, never as a provider result.
type Driver struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func New(client *redis.Client, key string, ttl time.Duration) *Driver {
	return &Driver{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (d *Driver) Get(username string) ([]model.GameRecord, bool, error) {
	val, err := d.client.Get(d.getFullKey(username)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}

	var games []model.GameRecord
	if err := json.Unmarshal([]byte(val), &games); err != nil {
		// Stale or corrupt payload: treat as a miss, the provider is
		// the source of truth.
		return nil, false, nil
	}
	return games, true, nil
}

func (d *Driver) Set(username string, games []model.GameRecord) error {
	payload, err := json.Marshal(games)
	if err != nil {
		return err
	}
	return d.client.Set(d.getFullKey(username), string(payload), d.ttl).Err()
}

func (d *Driver) Invalidate(username string) error {
	return d.client.Del(d.getFullKey(username)).Err()
}

func (d *Driver) getFullKey(username string) string {
	if d.key != "" {
		return d.key + ":" + username
	}
	return username
}
