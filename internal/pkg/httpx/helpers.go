package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gamma-omg/lexi-spell/internal/pkg/serr"
)

func ReadJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func WriteJSON(w http.ResponseWriter, status int, resp any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(resp)
}

// PathInt64 parses the named path value as a decimal identifier. A malformed value is
// reported as a ServiceError with status 400.
func PathInt64(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, serr.NewServiceError(err, http.StatusBadRequest, "invalid %s", name).With(name, raw)
	}

	return id, nil
}

func HandleErr(w http.ResponseWriter, r *http.Request, err error) {
	attrs := []any{
		"error", err,
		"method", r.Method,
		"url", r.URL.String(),
		"remote_addr", r.RemoteAddr,
	}

	var se *serr.ServiceError
	if errors.As(err, &se) {
		for k, v := range se.Env {
			attrs = append(attrs, k, v)
		}
		attrs = append(attrs, "status", se.StatusCode)

		if se.StatusCode >= http.StatusInternalServerError {
			slog.Error("request error", append(attrs, "stack_trace", se.StackTrace)...)
		} else {
			slog.Warn("request rejected", attrs...)
		}

		http.Error(w, se.Msg, se.StatusCode)
		return
	}

	slog.Error("request error", attrs...)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// BadRequest wraps a decoding error into a ServiceError with status 400.
func BadRequest(err error) error {
	return serr.NewServiceError(fmt.Errorf("decode request: %w", err), http.StatusBadRequest, "invalid request body")
}
