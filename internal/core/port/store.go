package port

import "context"

// The stores below are shared by concurrently running handlers; implementations guard
// themselves.

type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type UserSet interface {
	Add(ctx context.Context, chatID int64) error
	List(ctx context.Context) ([]int64, error)
	Count(ctx context.Context) (int, error)
}

type CounterStore interface {
	Increment(ctx context.Context, name string) error
	Counters(ctx context.Context) (map[string]uint64, error)
}

// Snapshotter persists in-memory state.
type Snapshotter interface {
	Save(ctx context.Context) error
}
