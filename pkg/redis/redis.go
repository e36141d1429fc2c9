package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/clinicflow_backend/config"
)

var ErrNoAddr = errors.New("redis: addr is empty")

// NewRedisFromCentral connects using the central config.
func NewRedisFromCentral(cfg config.RedisConfig) (*goredis.Client, error) {
	return NewRedis(FromCentralConfig(cfg))
}

// NewRedis connects and fails fast when the server does not answer a PING
// within the dial timeout.
func NewRedis(cfg Config) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, ErrNoAddr
	}
	rdb := goredis.NewClient(cfg.options())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout())
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("redis: ping %s: %w", cfg.Addr, err), rdb.Close())
	}
	return rdb, nil
}

func (c Config) options() *goredis.Options {
	return &goredis.Options{
		Addr:     c.Addr,
		DB:       c.DB,
		Username: c.Username,
		Password: c.Password,

		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,

		DialTimeout:  c.DialTimeout(),
		ReadTimeout:  c.ReadTimeout(),
		WriteTimeout: c.WriteTimeout(),
	}
}
