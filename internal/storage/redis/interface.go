// internal/storage/redis/interface.go
package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// DefaultUserID is the collection used when a caller supplies no identity.
const DefaultUserID = "default"

// ResolveUserID maps an optional caller-supplied identity to the collection
// key every storage operation requires. This is the only place the default
// sentinel is applied.
func ResolveUserID(raw string) string {
	if raw == "" {
		return DefaultUserID
	}
	return raw
}

// TodoItem is one task record as stored per user.
type TodoItem struct {
	DocumentID string `json:"id"`
	UserID     string `json:"userId"`
	Title      string `json:"title"`
	Order      int    `json:"order"`
	Completed  bool   `json:"completed"`
}

// NewTodo carries the caller-supplied fields of a todo being created.
type NewTodo struct {
	Title     string
	Order     int
	Completed bool
}

// Patch describes a partial update. Nil fields are left untouched.
type Patch struct {
	Title     *string
	Order     *int
	Completed *bool
}

// Empty reports whether the patch carries no field at all.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Order == nil && p.Completed == nil
}

// TodoStore is the storage contract exposed to the transport layer.
// userID must be non-empty; callers resolve identity via ResolveUserID first.
type TodoStore interface {
	// Count returns the number of todos in the user's collection.
	Count(ctx context.Context, userID string) (int64, error)
	// List returns the user's todos ascending by their sorted-set score.
	List(ctx context.Context, userID string) ([]TodoItem, error)
	// Get returns one todo after verifying it belongs to userID.
	Get(ctx context.Context, userID, documentID string) (*TodoItem, error)
	// Add mints a document ID, writes the record and indexes it.
	Add(ctx context.Context, userID string, in NewTodo) (*TodoItem, error)
	// Update writes the provided fields and returns the resulting record.
	Update(ctx context.Context, userID, documentID string, patch Patch) (*TodoItem, error)
	// Delete removes one todo from the index and drops its record.
	Delete(ctx context.Context, userID, documentID string) error
	// Clear removes every todo of one user; the ID counter is untouched.
	Clear(ctx context.Context, userID string) error
	// ClearAll flushes the entire keyspace, counter included.
	ClearAll(ctx context.Context) error
	// Ping reports whether the underlying connection is healthy.
	Ping(ctx context.Context) error
	// Close releases the underlying connection.
	Close() error
}

// Client is the limited set of functionality the store needs from the redis
// client. Keeping it narrow allows an in-memory fake in tests; *redis.Client
// satisfies it.
type Client interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	ZRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	ZRemRangeByRank(ctx context.Context, key string, start, stop int64) *redis.IntCmd
	ZCard(ctx context.Context, key string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	FlushAll(ctx context.Context) *redis.StatusCmd
	Close() error
}
