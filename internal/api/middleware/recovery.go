package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/blaisecz/nap-planner/internal/logger"
	"github.com/blaisecz/nap-planner/pkg/problem"
)

// Recovery recovers from panics and returns a 500 error
func Recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Errorw("panic recovered",
						"panic", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					problem.InternalError("An unexpected error occurred").Write(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
