// internal/transport/http/handler_test.go
package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	storage "github.com/taskstack/todo-service/internal/storage/redis"
	transport "github.com/taskstack/todo-service/internal/transport/http"
	"github.com/taskstack/todo-service/pkg/logger"
)

// stubStore lets each test override only the operations it exercises.
type stubStore struct {
	count  func(ctx context.Context, userID string) (int64, error)
	list   func(ctx context.Context, userID string) ([]storage.TodoItem, error)
	get    func(ctx context.Context, userID, id string) (*storage.TodoItem, error)
	add    func(ctx context.Context, userID string, in storage.NewTodo) (*storage.TodoItem, error)
	update func(ctx context.Context, userID, id string, patch storage.Patch) (*storage.TodoItem, error)
	del    func(ctx context.Context, userID, id string) error
	clear  func(ctx context.Context, userID string) error
}

func (s *stubStore) Count(ctx context.Context, userID string) (int64, error) {
	return s.count(ctx, userID)
}
func (s *stubStore) List(ctx context.Context, userID string) ([]storage.TodoItem, error) {
	return s.list(ctx, userID)
}
func (s *stubStore) Get(ctx context.Context, userID, id string) (*storage.TodoItem, error) {
	return s.get(ctx, userID, id)
}
func (s *stubStore) Add(ctx context.Context, userID string, in storage.NewTodo) (*storage.TodoItem, error) {
	return s.add(ctx, userID, in)
}
func (s *stubStore) Update(ctx context.Context, userID, id string, patch storage.Patch) (*storage.TodoItem, error) {
	return s.update(ctx, userID, id, patch)
}
func (s *stubStore) Delete(ctx context.Context, userID, id string) error {
	return s.del(ctx, userID, id)
}
func (s *stubStore) Clear(ctx context.Context, userID string) error { return s.clear(ctx, userID) }
func (s *stubStore) ClearAll(ctx context.Context) error             { return nil }
func (s *stubStore) Ping(ctx context.Context) error                 { return nil }
func (s *stubStore) Close() error                                   { return nil }

func newAPI(t *testing.T, s storage.TodoStore) http.Handler {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", DevMode: true})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return transport.Routes(transport.NewHandler(s, log))
}

func TestCreate_Returns201AndItem(t *testing.T) {
	var gotUser string
	api := newAPI(t, &stubStore{
		add: func(_ context.Context, userID string, in storage.NewTodo) (*storage.TodoItem, error) {
			gotUser = userID
			return &storage.TodoItem{DocumentID: "1", UserID: userID, Title: in.Title, Order: in.Order}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"title":"buy milk","order":1}`))
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotUser != "u1" {
		t.Errorf("expected user u1, got %q", gotUser)
	}
	var item storage.TodoItem
	if err := json.NewDecoder(rec.Body).Decode(&item); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if item.DocumentID != "1" || item.Title != "buy milk" || item.Order != 1 {
		t.Errorf("unexpected body: %+v", item)
	}
}

func TestCreate_MissingTitleIs400(t *testing.T) {
	api := newAPI(t, &stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"order":1}`))
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestList_MissingUserHeaderResolvesDefault(t *testing.T) {
	var gotUser string
	api := newAPI(t, &stubStore{
		list: func(_ context.Context, userID string) ([]storage.TodoItem, error) {
			gotUser = userID
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUser != storage.DefaultUserID {
		t.Errorf("expected default user, got %q", gotUser)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected empty JSON array, got %s", body)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"forbidden", storage.ErrForbidden, http.StatusForbidden},
		{"not found", storage.ErrNotFound, http.StatusNotFound},
		{"timeout", storage.ErrTimeout, http.StatusGatewayTimeout},
		{"unavailable", storage.ErrUnavailable, http.StatusServiceUnavailable},
		{"bad record", storage.ErrBadRecord, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newAPI(t, &stubStore{
				get: func(context.Context, string, string) (*storage.TodoItem, error) {
					return nil, tc.err
				},
			})
			req := httptest.NewRequest(http.MethodGet, "/todos/7", nil)
			rec := httptest.NewRecorder()
			api.ServeHTTP(rec, req)
			if rec.Code != tc.code {
				t.Errorf("expected %d, got %d", tc.code, rec.Code)
			}
		})
	}
}

func TestUpdate_ForwardsPatchFields(t *testing.T) {
	var gotPatch storage.Patch
	api := newAPI(t, &stubStore{
		update: func(_ context.Context, _, id string, patch storage.Patch) (*storage.TodoItem, error) {
			gotPatch = patch
			return &storage.TodoItem{DocumentID: id, UserID: "u1", Title: "t", Completed: true}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPatch, "/todos/3", strings.NewReader(`{"completed":true}`))
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotPatch.Completed == nil || !*gotPatch.Completed {
		t.Error("expected completed=true in patch")
	}
	if gotPatch.Title != nil || gotPatch.Order != nil {
		t.Error("absent fields must stay nil in the patch")
	}
}

func TestDelete_Returns204(t *testing.T) {
	api := newAPI(t, &stubStore{
		del: func(context.Context, string, string) error { return nil },
	})

	req := httptest.NewRequest(http.MethodDelete, "/todos/1", nil)
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestCount_ReturnsJSONCount(t *testing.T) {
	api := newAPI(t, &stubStore{
		count: func(context.Context, string) (int64, error) { return 12, nil },
	})

	req := httptest.NewRequest(http.MethodGet, "/todos/count", nil)
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 12 {
		t.Errorf("expected count 12, got %d", body.Count)
	}
}

func TestClear_Returns204(t *testing.T) {
	api := newAPI(t, &stubStore{
		clear: func(context.Context, string) error { return nil },
	})

	req := httptest.NewRequest(http.MethodDelete, "/todos", nil)
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
