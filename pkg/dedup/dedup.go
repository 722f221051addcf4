package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

type Config struct {
	Addr string        `yaml:"addr" envconfig:"REDIS_ADDR"`
	DB   int           `yaml:"db" envconfig:"REDIS_DB"`
	TTL  time.Duration `yaml:"ttl" envconfig:"REDIS_DEDUP_TTL"`
}

func (c Config) Enabled() bool {
	return c.Addr != ""
}

func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return client, nil
}

// Checker claims message ids in Redis so that a redelivered message is
// processed at most once within the TTL.
// Key format: dedup:<scope>:<id>
type Checker struct {
	client *redis.Client
	scope  string
	ttl    time.Duration
}

func NewChecker(client *redis.Client, scope string, ttl time.Duration) *Checker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Checker{client: client, scope: scope, ttl: ttl}
}

// Claim reports whether the caller is the first to see id.
func (d *Checker) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(id), "1", d.ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "dedup claim %s", id)
	}
	return ok, nil
}

// Release drops a claim so that a redelivery of id is processed again.
func (d *Checker) Release(ctx context.Context, id string) error {
	if err := d.client.Del(ctx, d.key(id)).Err(); err != nil {
		return errors.Wrapf(err, "dedup release %s", id)
	}
	return nil
}

func (d *Checker) key(id string) string {
	return fmt.Sprintf("dedup:%s:%s", d.scope, id)
}
