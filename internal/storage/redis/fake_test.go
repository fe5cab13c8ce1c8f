// internal/storage/redis/fake_test.go
package redis_test

import (
	"context"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// fakeClient is an in-memory stand-in for the limited redis client the store
// depends on. Command failures are injected per command name, or per
// "command key" for a single key.
type fakeClient struct {
	mu       sync.Mutex
	hashes   map[string]map[string]string
	zsets    map[string][]zmember
	counters map[string]int64
	failures map[string]error
	closed   bool
}

type zmember struct {
	member string
	score  float64
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		hashes:   make(map[string]map[string]string),
		zsets:    make(map[string][]zmember),
		counters: make(map[string]int64),
		failures: make(map[string]error),
	}
}

func (f *fakeClient) failOn(cmd string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[cmd] = err
}

func (f *fakeClient) injected(cmd, key string) error {
	if err, ok := f.failures[cmd+" "+key]; ok {
		return err
	}
	return f.failures[cmd]
}

// setHashField corrupts or amends a stored record directly.
func (f *fakeClient) setHashField(key, field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]string)
	}
	f.hashes[key][field] = value
}

func (f *fakeClient) delHashField(key, field string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.hashes[key], field)
}

func (f *fakeClient) sortZSet(key string) {
	ms := f.zsets[key]
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].score != ms[j].score {
			return ms[i].score < ms[j].score
		}
		return ms[i].member < ms[j].member
	})
}

func (f *fakeClient) Ping(ctx context.Context) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("ping", ""); err != nil {
		return redis.NewStatusResult("", err)
	}
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeClient) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("incr", key); err != nil {
		return redis.NewIntResult(0, err)
	}
	f.counters[key]++
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeClient) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("hset", key); err != nil {
		return redis.NewIntResult(0, err)
	}
	h := f.hashes[key]
	if h == nil {
		h = make(map[string]string)
		f.hashes[key] = h
	}
	for i := 0; i+1 < len(values); i += 2 {
		h[values[i].(string)] = values[i+1].(string)
	}
	return redis.NewIntResult(int64(len(values) / 2), nil)
}

func (f *fakeClient) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("hgetall", key); err != nil {
		return redis.NewMapStringStringResult(nil, err)
	}
	out := make(map[string]string, len(f.hashes[key]))
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return redis.NewMapStringStringResult(out, nil)
}

func (f *fakeClient) ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("zadd", key); err != nil {
		return redis.NewIntResult(0, err)
	}
	var added int64
	for _, m := range members {
		member := m.Member.(string)
		found := false
		for i := range f.zsets[key] {
			if f.zsets[key][i].member == member {
				f.zsets[key][i].score = m.Score
				found = true
				break
			}
		}
		if !found {
			f.zsets[key] = append(f.zsets[key], zmember{member: member, score: m.Score})
			added++
		}
	}
	f.sortZSet(key)
	return redis.NewIntResult(added, nil)
}

func (f *fakeClient) ZRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("zrange", key); err != nil {
		return redis.NewStringSliceResult(nil, err)
	}
	// the store only issues full-range queries
	out := make([]string, 0, len(f.zsets[key]))
	for _, m := range f.zsets[key] {
		out = append(out, m.member)
	}
	return redis.NewStringSliceResult(out, nil)
}

func (f *fakeClient) ZRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("zrem", key); err != nil {
		return redis.NewIntResult(0, err)
	}
	var removed int64
	for _, raw := range members {
		member := raw.(string)
		for i, m := range f.zsets[key] {
			if m.member == member {
				f.zsets[key] = append(f.zsets[key][:i], f.zsets[key][i+1:]...)
				removed++
				break
			}
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeClient) ZRemRangeByRank(ctx context.Context, key string, start, stop int64) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("zremrangebyrank", key); err != nil {
		return redis.NewIntResult(0, err)
	}
	n := int64(len(f.zsets[key]))
	delete(f.zsets, key)
	return redis.NewIntResult(n, nil)
}

func (f *fakeClient) ZCard(ctx context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("zcard", key); err != nil {
		return redis.NewIntResult(0, err)
	}
	return redis.NewIntResult(int64(len(f.zsets[key])), nil)
}

func (f *fakeClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for _, key := range keys {
		if err := f.injected("del", key); err != nil {
			return redis.NewIntResult(deleted, err)
		}
		if _, ok := f.hashes[key]; ok {
			delete(f.hashes, key)
			deleted++
		}
		if _, ok := f.zsets[key]; ok {
			delete(f.zsets, key)
			deleted++
		}
	}
	return redis.NewIntResult(deleted, nil)
}

func (f *fakeClient) FlushAll(ctx context.Context) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("flushall", ""); err != nil {
		return redis.NewStatusResult("", err)
	}
	f.hashes = make(map[string]map[string]string)
	f.zsets = make(map[string][]zmember)
	f.counters = make(map[string]int64)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
