package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestObserver records finished requests.
type RequestObserver interface {
	ObserveRequest(method, path, status string, d time.Duration)
}

// Metrics reports every request to obs. The path label is the matched chi
// route pattern, so /api/products/{id} is one series rather than one per id.
// Unmatched requests are grouped under "unmatched".
func Metrics(obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := wrap(w)

			next.ServeHTTP(ww, r)

			path := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					path = p
				}
			}
			obs.ObserveRequest(r.Method, path, strconv.Itoa(ww.status), time.Since(start))
		})
	}
}
