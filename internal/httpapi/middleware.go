package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// statusRecorder captures the status code and content type a handler wrote so
// the access log can report them.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.log.Info("request received",
			zap.String("ip", r.RemoteAddr),
			zap.String("URI", r.RequestURI),
			zap.String("method", r.Method))

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		h.log.Info("response sent",
			zap.Int64("response_time", time.Since(start).Milliseconds()),
			zap.Int("code", rec.status),
			zap.String("content_type", rec.Header().Get("Content-Type")))
	})
}
