// Package slot provides the durable key-value slot the catalog is mirrored into.
package slot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Slot stores opaque payloads under a fixed name. Get reports false when the
// key was never written.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}

type Options struct {
	Driver string

	Dir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	DatabaseURL string
	SQLitePath  string
}

// Open builds the slot named by opts.Driver; an empty driver means "file".
func Open(ctx context.Context, opts Options) (Slot, error) {
	var (
		s   Slot
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "file":
		s, err = NewFileSlot(opts.Dir)
	case "memory":
		s = NewMemSlot()
	case "redis":
		s, err = OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix)
	case "postgres":
		s, err = OpenPostgres(ctx, opts.DatabaseURL)
	case "sqlite":
		s, err = OpenSQLite(ctx, opts.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
