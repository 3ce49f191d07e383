package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ekodecrux/expertaitutor3-sub001/internal/logger"
)

// responseWriter wraps http.ResponseWriter to capture the status code and
// whether the response has started.
type responseWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

type contextKey string

const (
	learnerContextKey contextKey = "learner"

	// learnerHeader carries the authenticated learner id. The gateway in
	// front of this service owns authentication; the id is trusted here.
	learnerHeader = "X-Learner-ID"
)

func learnerFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(learnerContextKey).(int64)
	return id, ok
}

// learnerMiddleware requires a learner identity on every request and makes
// it available in the request context.
func (s *Server) learnerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		header := r.Header.Get(learnerHeader)
		if header == "" {
			log.Warn("missing %s header", learnerHeader)
			respondJSON(w, http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "learner identity required"))
			return
		}

		learnerID, err := strconv.ParseInt(header, 10, 64)
		if err != nil || learnerID <= 0 {
			log.Warn("invalid %s header: %s", learnerHeader, header)
			respondJSON(w, http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "invalid learner identity"))
			return
		}

		ctx := context.WithValue(r.Context(), learnerContextKey, learnerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs HTTP requests with timing, status codes, and request IDs.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		log := logger.Default().WithFields(map[string]any{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		if r.RemoteAddr != "" {
			log = log.WithField("remote_addr", r.RemoteAddr)
		}

		ctx := logger.NewContext(r.Context(), log)
		r = r.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		log.Debug("request started")

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		log = log.WithFields(map[string]any{
			"status":      wrapped.status,
			"size":        wrapped.size,
			"duration_ms": duration.Milliseconds(),
		})

		if wrapped.status >= 500 {
			log.Error("request completed with server error")
		} else if wrapped.status >= 400 {
			log.Warn("request completed with client error")
		} else {
			log.Info("request completed")
		}
	})
}

// recoveryMiddleware recovers from panics and logs them. The error body is
// only written when the handler had not started the response; a panic
// mid-write leaves the partial response as is.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if rec := recover(); rec != nil {
				log := logger.FromContext(r.Context())
				log.Error("panic recovered: %v", rec)
				if !wrapped.wroteHeader {
					respondJSON(wrapped, http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "internal server error"))
				}
			}
		}()
		next.ServeHTTP(wrapped, r)
	})
}
