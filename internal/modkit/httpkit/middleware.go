package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"noterelay/internal/platform/net/middleware"
)

// CommonStack returns a baseline per module middleware slice
// compose with your own middleware as needed in main
//
// timeout bounds every request on the stack; zero or negative picks a
// conservative default. Routes that drive slow upstreams (publish runs
// several platform attempts with backoff) need a generous value here
func CommonStack(timeout time.Duration) []func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 2 * time.Second}),

		// cross-origin (tweak config in main if needed)
		middleware.CORS(middleware.CORSOptions{
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Request-ID",
				"X-XHS-Cookie",
			},
		}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.RedirectSlashes(),
		middleware.StripSlashes(),
		middleware.Timeout(timeout),
	}
}
