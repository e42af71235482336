package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the request id in requests and responses.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// requestID returns the id assigned by requestIDMiddleware.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestIDMiddleware keeps a caller supplied request id that parses as a
// UUID and assigns a fresh one otherwise.
func requestIDMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id := req.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), requestIDKey{}, id)))
		})
	}
}

// loggingMiddleware logs method, uri, duration and response code of every
// request.
func loggingMiddleware(logger zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, req)

			ev := logger.Info()
			if rw.statusCode >= http.StatusInternalServerError {
				ev = logger.Error()
			}
			ev.Str("request_id", requestID(req.Context())).
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("client_ip", req.RemoteAddr).
				Dur("duration", time.Since(start)).
				Int("response_code", rw.statusCode).
				Msg("api")
		})
	}
}

// responseWriter captures the response code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
