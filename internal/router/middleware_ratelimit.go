package router

import (
	"net/http"

	"github.com/cclaudio/trustee/internal/ratelimiter"
)

type rateLimitMiddleware struct{ limiter *ratelimiter.Limiter }

func newRateLimitMiddleware() *rateLimitMiddleware {
	return &rateLimitMiddleware{limiter: ratelimiter.New()}
}

func (m *rateLimitMiddleware) allow(w http.ResponseWriter, r *http.Request, key string, rps, burst int) bool {
	if !m.limiter.Allow(ratelimiter.ClientIP(r.RemoteAddr)+"|"+key, rps, burst) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return false
	}
	return true
}

// allow applies the per-client, per-plugin limit when one is configured.
func (r *Router) allow(w http.ResponseWriter, req *http.Request, pluginName string) bool {
	if r.rlmw == nil {
		return true
	}
	if r.rlmw.allow(w, req, pluginName, r.limit.RequestsPerSecond, r.limit.Burst) {
		return true
	}
	r.metrics.IncRateLimited()
	return false
}
