package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ordernow/internal/logger"
	"ordernow/internal/models"
)

type ctxKey int

const (
	userKey ctxKey = iota
	requestIDKey
)

// UserResolver looks up an active user by id. The identity provider in
// front of this service has already authenticated the caller; the header
// carries only the resolved identity.
type UserResolver interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// UserFromContext returns the authenticated user set by Authenticate
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

// RequestIDFromContext returns the request id set by RequestLogger
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Authenticate resolves the X-User-ID header to an active user and stores
// it on the request context
func Authenticate(resolver UserResolver, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("X-User-ID")
			if header == "" {
				ErrorMessage(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
				return
			}

			userID, err := strconv.ParseInt(header, 10, 64)
			if err != nil {
				ErrorMessage(w, http.StatusUnauthorized, "Invalid authentication credentials.")
				return
			}

			user, err := resolver.GetUser(r.Context(), userID)
			if err != nil {
				log.Debug("auth_failed", "Failed to resolve user", RequestIDFromContext(r.Context()), map[string]interface{}{
					"user_id": userID,
				})
				ErrorMessage(w, http.StatusUnauthorized, "Invalid authentication credentials.")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger assigns a request id and logs each request with its
// status code and duration
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := logger.GenerateRequestID()

			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			r = r.WithContext(ctx)

			log.Debug("request_started",
				fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				requestID,
				map[string]interface{}{
					"method":      r.Method,
					"path":        r.URL.Path,
					"remote_addr": r.RemoteAddr,
				})

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			log.Debug("request_completed",
				fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
				requestID,
				map[string]interface{}{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status_code": rw.statusCode,
					"duration_ms": time.Since(start).Milliseconds(),
				})
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
