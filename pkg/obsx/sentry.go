package obsx

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/aussiebroadwan/fintrack/pkg/slogx"
	"github.com/getsentry/sentry-go"
)

// InitSentry configures the global Sentry client. An empty DSN disables
// reporting and is not an error.
func InitSentry(dsn, environment, release string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
	})
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// CaptureError reports err with the request ID from ctx, if any. It is a
// no-op when Sentry was never initialised.
func CaptureError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		if id := slogx.RequestID(ctx); id != "" {
			scope.SetTag("req_id", id)
		}
		sentry.CaptureException(err)
	})
}

// RecoverMiddleware turns a handler panic into a 500, logs it and reports it
// to Sentry.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			stack := string(debug.Stack())
			sentry.WithScope(func(scope *sentry.Scope) {
				scope.SetExtra("panic", rec)
				scope.SetExtra("stack", stack)
				scope.SetTag("path", r.URL.Path)
				sentry.CaptureMessage("panic in request")
			})

			slogx.FromContext(r.Context()).Error("panic_recovered",
				"panic", rec,
				"path", r.URL.Path,
				"method", r.Method,
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"server_error","message":"internal server error"}`))
		}()

		next.ServeHTTP(w, r)
	})
}
