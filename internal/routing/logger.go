package routing

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pelyams/inventory_items_service/internal/domain"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger writes one log line per request, carrying the errors that
// handlers and the service recorded in the request's ErrorContainer.
type RequestLogger struct {
	log *zap.Logger
}

func NewRequestLogger(log *zap.Logger) *RequestLogger {
	return &RequestLogger{log: log}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (l *RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		started := time.Now()
		errContainer := domain.NewErrorContainer()
		ctx := domain.WithErrorContainer(r.Context(), &errContainer)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(ctx))

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(started)),
		}
		errs := errContainer.Unwrap()
		switch {
		case rec.status >= http.StatusInternalServerError:
			l.log.Error("request failed", append(fields, zap.Errors("errors", errs))...)
		case len(errs) > 0:
			l.log.Warn("request completed with errors", append(fields, zap.Errors("errors", errs))...)
		default:
			l.log.Info("request completed", fields...)
		}
	})
}
