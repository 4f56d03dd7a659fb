package ports

import (
	"context"
	"time"
)

// KV is a small durable key-value capability. The sync adapter uses it to
// remember remote directory item ids across process restarts; it is not a
// read cache in front of the record store.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
