package rdb

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the client shared by the pass locker.
type Redis struct {
	addresses []string
	client    redis.UniversalClient
}

// NewClient accepts one redis:// or rediss:// url, or several host:port
// addresses of a cluster.
func NewClient(addresses []string) (*Redis, error) {
	if len(addresses) == 0 {
		return nil, errors.New("redis addresses list cannot be empty")
	}

	for _, dsn := range addresses {
		if strings.TrimSpace(dsn) == "" {
			return nil, errors.New("dsn cannot be empty")
		}
	}

	var client redis.UniversalClient
	if len(addresses) == 1 {
		opts, err := redis.ParseURL(addresses[0])
		if err != nil {
			return nil, err
		}
		client = redis.NewClient(opts)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: addresses,
		})
	}

	return &Redis{addresses: addresses, client: client}, nil
}

// NewClientFromDsn splits a comma separated dsn list.
func NewClientFromDsn(dsn string) (*Redis, error) {
	var addresses []string
	for _, a := range strings.Split(dsn, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addresses = append(addresses, a)
		}
	}
	return NewClient(addresses)
}

// Client is to return underlying redis interface
func (r *Redis) Client() redis.UniversalClient {
	return r.client
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
