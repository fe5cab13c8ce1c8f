// internal/transport/http/handler.go
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	storage "github.com/taskstack/todo-service/internal/storage/redis"
	"github.com/taskstack/todo-service/pkg/logger"
)

// userHeader carries the caller identity; absent means the default collection.
const userHeader = "X-User-ID"

// Handler exposes the todo store contract over REST.
type Handler struct {
	store storage.TodoStore
	log   *logger.Logger
}

func NewHandler(store storage.TodoStore, log *logger.Logger) *Handler {
	return &Handler{store: store, log: log.Named("handler")}
}

// userID resolves the caller identity exactly once at the boundary.
func userID(r *http.Request) string {
	return storage.ResolveUserID(r.Header.Get(userHeader))
}

type createRequest struct {
	Title     string `json:"title"`
	Order     int    `json:"order"`
	Completed bool   `json:"completed"`
}

type patchRequest struct {
	Title     *string `json:"title"`
	Order     *int    `json:"order"`
	Completed *bool   `json:"completed"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if items == nil {
		items = []storage.TodoItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	item, err := h.store.Add(r.Context(), userID(r), storage.NewTodo{
		Title:     req.Title,
		Order:     req.Order,
		Completed: req.Completed,
	})
	if err != nil {
		h.log.WithContext(r.Context()).Error("create failed", zap.Error(err))
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.Update(r.Context(), userID(r), chi.URLParam(r, "id"), storage.Patch{
		Title:     req.Title,
		Order:     req.Order,
		Completed: req.Completed,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeNoContent(w)
}

func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Count(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context(), userID(r)); err != nil {
		writeStoreError(w, err)
		return
	}
	writeNoContent(w)
}

func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearAll(r.Context()); err != nil {
		writeStoreError(w, err)
		return
	}
	writeNoContent(w)
}
