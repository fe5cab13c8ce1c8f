// internal/transport/http/response.go
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	storage "github.com/taskstack/todo-service/internal/storage/redis"
)

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeJSON writes a success response.
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	res := errorBody{}
	res.Error.Code = code
	res.Error.Message = msg
	_ = json.NewEncoder(w).Encode(res)
}

// writeStoreError maps the storage error taxonomy onto status codes without
// collapsing the distinction between kinds.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrForbidden):
		writeError(w, http.StatusForbidden, "todo belongs to another user")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "todo not found")
	case errors.Is(err, storage.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "store operation timed out")
	case errors.Is(err, storage.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
