package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"leavemgmt/internal/requestctx"
)

// StatusRecorder receives the outcome of every request.
type StatusRecorder interface {
	Record(status int, duration time.Duration)
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.wroteHeader = true
	}
	return s.ResponseWriter.Write(b)
}

// Logger logs one line per request and stores a request-scoped logger in
// the context for handlers. stats may be nil.
func Logger(logger *zap.Logger, stats StatusRecorder) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := GetRequestID(r.Context())
			reqLogger := logger.With(zap.String("request_id", reqID))
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r.WithContext(requestctx.WithLogger(r.Context(), reqLogger)))

			took := time.Since(start)
			if stats != nil {
				stats.Record(recorder.status, took)
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", recorder.status),
				zap.Duration("duration", took),
			}
			if recorder.status >= http.StatusInternalServerError {
				reqLogger.Warn("request", fields...)
				return
			}
			reqLogger.Info("request", fields...)
		})
	}
}
