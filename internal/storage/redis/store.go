// internal/storage/redis/store.go
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taskstack/todo-service/internal/metrics"
	"github.com/taskstack/todo-service/pkg/backoff"
	"github.com/taskstack/todo-service/pkg/logger"
)

var tracer = otel.Tracer("todo/storage/redis")

// todoStore implements TodoStore over a limited redis client.
//
// Commands with a data dependency (mint-then-write, write-then-index,
// remove-then-drop) run strictly in sequence; independent per-item lookups
// inside List fan out and join before the call returns.
type todoStore struct {
	rdb        Client
	opTimeout  time.Duration
	backoffCfg backoff.Config
	log        *logger.Logger
}

// New wraps an established client in the TodoStore contract.
func New(rdb Client, cfg Config, log *logger.Logger) TodoStore {
	cfg.ApplyDefaults()
	return &todoStore{
		rdb:        rdb,
		opTimeout:  cfg.OpTimeout,
		backoffCfg: cfg.Backoff,
		log:        log.Named("todostore"),
	}
}

// execute runs one store command under the per-operation deadline and the
// configured retry policy, then classifies whatever comes out.
func (s *todoStore) execute(ctx context.Context, op backoff.RetryableFunc) error {
	if s.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opTimeout)
		defer cancel()
	}
	return classify(backoff.Execute(ctx, s.backoffCfg, s.log, op))
}

func requireUser(userID string) error {
	if userID == "" {
		return fmt.Errorf("todostore: userID is required, resolve identity first")
	}
	return nil
}

// fetchItem reads and decodes one hash record. Ownership is not checked here.
func (s *todoStore) fetchItem(ctx context.Context, documentID string) (TodoItem, error) {
	var raw map[string]string
	op := func(ctx context.Context) error {
		m, err := s.rdb.HGetAll(ctx, documentID).Result()
		if err != nil {
			return err
		}
		raw = m
		return nil
	}
	if err := s.execute(ctx, op); err != nil {
		return TodoItem{}, err
	}
	return decodeRecord(documentID, raw)
}

func (s *todoStore) Count(ctx context.Context, userID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "TodoStore.Count")
	defer span.End()
	start := time.Now()

	if err := requireUser(userID); err != nil {
		return 0, err
	}

	var n int64
	err := s.execute(ctx, func(ctx context.Context) error {
		v, err := s.rdb.ZCard(ctx, userID).Result()
		if err != nil {
			return err
		}
		n = v
		return nil
	})
	metrics.ObserveStore("count", start, err)
	if err != nil {
		span.RecordError(err)
		s.log.WithContext(ctx).Error("count failed", zap.String("user", userID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

// List returns the user's todos in index order (ascending score). Record
// lookups run concurrently but the result keeps the order of the preceding
// range query, and the call only returns once every lookup has finished.
// Policy: any malformed or missing member record fails the whole call.
func (s *todoStore) List(ctx context.Context, userID string) ([]TodoItem, error) {
	ctx, span := tracer.Start(ctx, "TodoStore.List")
	defer span.End()
	start := time.Now()

	if err := requireUser(userID); err != nil {
		return nil, err
	}

	ids, err := s.memberIDs(ctx, userID)
	if err != nil {
		metrics.ObserveStore("list", start, err)
		span.RecordError(err)
		return nil, err
	}

	items := make([]TodoItem, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			item, err := s.fetchItem(gctx, id)
			if err != nil {
				return fmt.Errorf("member %s: %w", id, err)
			}
			items[i] = item
			return nil
		})
	}
	err = g.Wait()
	metrics.ObserveStore("list", start, err)
	if err != nil {
		span.RecordError(err)
		s.log.WithContext(ctx).Error("list failed", zap.String("user", userID), zap.Error(err))
		return nil, err
	}
	return items, nil
}

func (s *todoStore) memberIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.execute(ctx, func(ctx context.Context) error {
		v, err := s.rdb.ZRange(ctx, userID, 0, -1).Result()
		if err != nil {
			return err
		}
		ids = v
		return nil
	})
	return ids, err
}

func (s *todoStore) Get(ctx context.Context, userID, documentID string) (*TodoItem, error) {
	ctx, span := tracer.Start(ctx, "TodoStore.Get")
	defer span.End()
	start := time.Now()

	item, err := s.get(ctx, userID, documentID)
	metrics.ObserveStore("get", start, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return item, nil
}

// get is the ownership-checked lookup shared by Get and Update.
func (s *todoStore) get(ctx context.Context, userID, documentID string) (*TodoItem, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if documentID == "" {
		return nil, fmt.Errorf("%w: empty document id", ErrNotFound)
	}

	item, err := s.fetchItem(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, fmt.Errorf("%w: id %s is owned by another user", ErrForbidden, documentID)
	}
	return &item, nil
}

// Add mints a document ID, writes the hash record, then indexes it in the
// user's sorted set, strictly in that order. A failure after the counter was
// incremented surfaces as ErrCreateIncomplete; the counter gap is accepted.
func (s *todoStore) Add(ctx context.Context, userID string, in NewTodo) (*TodoItem, error) {
	ctx, span := tracer.Start(ctx, "TodoStore.Add")
	defer span.End()
	start := time.Now()

	item, err := s.add(ctx, userID, in)
	metrics.ObserveStore("add", start, err)
	if err != nil {
		span.RecordError(err)
		s.log.WithContext(ctx).Error("add failed", zap.String("user", userID), zap.Error(err))
		return nil, err
	}
	s.log.WithContext(ctx).Debug("todo added",
		zap.String("user", userID), zap.String("id", item.DocumentID))
	return item, nil
}

func (s *todoStore) add(ctx context.Context, userID string, in NewTodo) (*TodoItem, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, fmt.Errorf("todostore: title is required")
	}

	// Step 1: mint the document ID.
	var seq int64
	err := s.execute(ctx, func(ctx context.Context) error {
		v, err := s.rdb.Incr(ctx, idCounterKey).Result()
		if err != nil {
			return err
		}
		seq = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mint id: %w", err)
	}

	item := TodoItem{
		DocumentID: strconv.FormatInt(seq, 10),
		UserID:     userID,
		Title:      in.Title,
		Order:      in.Order,
		Completed:  in.Completed,
	}

	// Step 2: write the record. Failing here leaves only a counter gap.
	err = s.execute(ctx, func(ctx context.Context) error {
		return s.rdb.HSet(ctx, item.DocumentID, encodeRecord(item)...).Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: record write for id %s: %w", ErrCreateIncomplete, item.DocumentID, err)
	}

	// Step 3: index the record. Failing here leaves an orphan hash record,
	// which must be reported rather than swallowed.
	err = s.execute(ctx, func(ctx context.Context) error {
		return s.rdb.ZAdd(ctx, userID, redis.Z{
			Score:  float64(item.Order),
			Member: item.DocumentID,
		}).Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: index write for id %s (orphan record left): %w", ErrCreateIncomplete, item.DocumentID, err)
	}

	return &item, nil
}

// Update writes only the provided fields. When the order changes, the
// sorted-set score is re-issued as well so index order and the stored field
// never drift apart. An empty patch is a no-op returning the current item.
func (s *todoStore) Update(ctx context.Context, userID, documentID string, patch Patch) (*TodoItem, error) {
	ctx, span := tracer.Start(ctx, "TodoStore.Update")
	defer span.End()
	start := time.Now()

	item, err := s.update(ctx, userID, documentID, patch)
	metrics.ObserveStore("update", start, err)
	if err != nil {
		span.RecordError(err)
		s.log.WithContext(ctx).Error("update failed",
			zap.String("user", userID), zap.String("id", documentID), zap.Error(err))
		return nil, err
	}
	return item, nil
}

func (s *todoStore) update(ctx context.Context, userID, documentID string, patch Patch) (*TodoItem, error) {
	current, err := s.get(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return current, nil
	}

	item := *current
	pairs := make([]interface{}, 0, 6)
	if patch.Title != nil {
		item.Title = *patch.Title
		pairs = append(pairs, fieldTitle, item.Title)
	}
	if patch.Order != nil {
		item.Order = *patch.Order
		pairs = append(pairs, fieldOrder, strconv.Itoa(item.Order))
	}
	if patch.Completed != nil {
		item.Completed = *patch.Completed
		pairs = append(pairs, fieldCompleted, strconv.FormatBool(item.Completed))
	}

	err = s.execute(ctx, func(ctx context.Context) error {
		return s.rdb.HSet(ctx, documentID, pairs...).Err()
	})
	if err != nil {
		return nil, fmt.Errorf("field write for id %s: %w", documentID, err)
	}

	if patch.Order != nil && *patch.Order != current.Order {
		err = s.execute(ctx, func(ctx context.Context) error {
			return s.rdb.ZAdd(ctx, userID, redis.Z{
				Score:  float64(item.Order),
				Member: documentID,
			}).Err()
		})
		if err != nil {
			return nil, fmt.Errorf("re-score for id %s: %w", documentID, err)
		}
	}

	return &item, nil
}

// Delete removes the document from the user's index, then drops its record.
// A member missing from the index is ErrNotFound, never a silent success.
func (s *todoStore) Delete(ctx context.Context, userID, documentID string) error {
	ctx, span := tracer.Start(ctx, "TodoStore.Delete")
	defer span.End()
	start := time.Now()

	err := s.delete(ctx, userID, documentID)
	metrics.ObserveStore("delete", start, err)
	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, ErrNotFound) {
			s.log.WithContext(ctx).Error("delete failed",
				zap.String("user", userID), zap.String("id", documentID), zap.Error(err))
		}
		return err
	}
	return nil
}

func (s *todoStore) delete(ctx context.Context, userID, documentID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	err := s.execute(ctx, func(ctx context.Context) error {
		removed, err := s.rdb.ZRem(ctx, userID, documentID).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			return backoff.Permanent(fmt.Errorf("%w: id %s not in index of %s", ErrNotFound, documentID, userID))
		}
		return nil
	})
	if err != nil {
		return err
	}

	// The two steps are not atomic. Failing here leaves an orphan hash
	// record, reported to the caller as best-effort cleanup gone wrong.
	err = s.execute(ctx, func(ctx context.Context) error {
		return s.rdb.Del(ctx, documentID).Err()
	})
	if err != nil {
		return fmt.Errorf("record drop for id %s (index entry already removed): %w", documentID, err)
	}
	return nil
}

// Clear drops every record of one user, then empties the index. Per-member
// failures are collected; the index is kept intact when any record survived
// so the operation can be retried. The ID counter is never touched.
func (s *todoStore) Clear(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "TodoStore.Clear")
	defer span.End()
	start := time.Now()

	err := s.clear(ctx, userID)
	metrics.ObserveStore("clear", start, err)
	if err != nil {
		span.RecordError(err)
		s.log.WithContext(ctx).Error("clear failed", zap.String("user", userID), zap.Error(err))
		return err
	}
	return nil
}

func (s *todoStore) clear(ctx context.Context, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	ids, err := s.memberIDs(ctx, userID)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range ids {
		id := id
		err := s.execute(ctx, func(ctx context.Context) error {
			return s.rdb.Del(ctx, id).Err()
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("member %s: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("clear %s: %d of %d record drops failed: %w",
			userID, len(errs), len(ids), errors.Join(errs...))
	}

	return s.execute(ctx, func(ctx context.Context) error {
		return s.rdb.ZRemRangeByRank(ctx, userID, 0, -1).Err()
	})
}

// ClearAll flushes the entire keyspace, the ID counter included.
func (s *todoStore) ClearAll(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "TodoStore.ClearAll")
	defer span.End()
	start := time.Now()

	err := s.execute(ctx, func(ctx context.Context) error {
		return s.rdb.FlushAll(ctx).Err()
	})
	metrics.ObserveStore("clear_all", start, err)
	if err != nil {
		span.RecordError(err)
		s.log.WithContext(ctx).Error("flush failed", zap.Error(err))
		return err
	}
	s.log.WithContext(ctx).Warn("store flushed")
	return nil
}

func (s *todoStore) Ping(ctx context.Context) error {
	return classify(s.rdb.Ping(ctx).Err())
}

func (s *todoStore) Close() error {
	return s.rdb.Close()
}
