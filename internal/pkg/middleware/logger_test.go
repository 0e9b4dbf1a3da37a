package middleware_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gamma-omg/lexi-spell/internal/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	Msg    string `json:"msg"`
	Level  string `json:"level"`
	URL    string `json:"url"`
	Agent  string `json:"agent"`
	Status int    `json:"status"`
	IP     string `json:"ip"`
	Method string `json:"method"`
}

func serveLogged(t *testing.T, next http.Handler) (*httptest.ResponseRecorder, logEntry) {
	t.Helper()

	b := bytes.Buffer{}
	l := slog.New(slog.NewJSONHandler(&b, &slog.HandlerOptions{}))

	req := httptest.NewRequest("GET", "/words?id=123", nil)
	req.RemoteAddr = "1.2.3.4"
	req.Header.Set("User-Agent", "test-runner")

	rec := httptest.NewRecorder()
	middleware.LogWith(l)(next).ServeHTTP(rec, req)

	var e logEntry
	require.NoError(t, json.Unmarshal(b.Bytes(), &e))
	return rec, e
}

func TestLogWith(t *testing.T) {
	rec, e := serveLogged(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "request received", e.Msg)
	assert.Equal(t, "INFO", e.Level)
	assert.Equal(t, "/words?id=123", e.URL)
	assert.Equal(t, "test-runner", e.Agent)
	assert.Equal(t, http.StatusTeapot, e.Status)
	assert.Equal(t, "1.2.3.4", e.IP)
	assert.Equal(t, "GET", e.Method)
}

func TestLogWith_ImplicitOK(t *testing.T) {
	_, e := serveLogged(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "body without explicit status")
	}))

	assert.Equal(t, http.StatusOK, e.Status)
}
