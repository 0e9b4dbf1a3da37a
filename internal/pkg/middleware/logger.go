package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gamma-omg/lexi-spell/internal/pkg/router"
)

type httpStatusWriter struct {
	http.ResponseWriter
	Status int
}

func (sw *httpStatusWriter) WriteHeader(status int) {
	sw.Status = status
	sw.ResponseWriter.WriteHeader(status)
}

func (sw *httpStatusWriter) Write(b []byte) (int, error) {
	if sw.Status == 0 {
		sw.Status = http.StatusOK
	}
	return sw.ResponseWriter.Write(b)
}

func Log() router.Middleware {
	return LogWith(slog.Default())
}

func LogWith(l *slog.Logger) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			statusWriter := &httpStatusWriter{ResponseWriter: w}
			t := time.Now()

			next.ServeHTTP(statusWriter, r)

			status := statusWriter.Status
			if status == 0 {
				status = http.StatusOK
			}

			l.Info("request received",
				"time", t,
				"duration", time.Since(t),
				"method", r.Method,
				"url", r.URL.String(),
				"ip", r.RemoteAddr,
				"status", status,
				"agent", r.UserAgent())
		})
	}
}
