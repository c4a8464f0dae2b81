package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/cclaudio/trustee/internal/config"
	"github.com/cclaudio/trustee/internal/observability"
	"github.com/cclaudio/trustee/internal/plugin"
)

// ResourcePrefix is the path under which plugin resources are served:
// GET /kbs/v0/{plugin}/{resource...}
const ResourcePrefix = "/kbs/v0/"

// Dispatcher answers resource requests by plugin name.
type Dispatcher interface {
	Dispatch(ctx context.Context, pluginName, resource, queryString string) ([]byte, error)
}

type Router struct {
	mux     *http.ServeMux
	plugins Dispatcher
	limit   config.RateLimitConfig
	rlmw    *rateLimitMiddleware
	metrics *observability.Metrics
	logger  *observability.Logger
}

func NewRouter(cfg config.ServerConfig, d Dispatcher, m *observability.Metrics, l *observability.Logger) (*Router, error) {
	if d == nil {
		return nil, errors.New("router: dispatcher required")
	}
	if m == nil {
		m = observability.NewMetrics()
	}
	if l == nil {
		l = observability.NopLogger()
	}
	r := &Router{
		mux:     http.NewServeMux(),
		plugins: d,
		limit:   cfg.RateLimit,
		metrics: m,
		logger:  l,
	}
	if r.limit.RequestsPerSecond > 0 {
		r.rlmw = newRateLimitMiddleware()
	}
	r.mux.HandleFunc("GET "+ResourcePrefix+"{plugin}/{resource...}", r.getResource)
	return r, nil
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) getResource(w http.ResponseWriter, req *http.Request) {
	r.metrics.IncRequests()
	pluginName := req.PathValue("plugin")
	resource := req.PathValue("resource")

	if !r.allow(w, req, pluginName) {
		return
	}

	data, err := r.plugins.Dispatch(req.Context(), pluginName, resource, req.URL.RawQuery)
	if err != nil {
		status := r.statusFor(err)
		r.logger.Warnw("resource request failed",
			"plugin", pluginName,
			"resource", resource,
			"status", status,
			"err", err,
		)
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// statusFor maps dispatch errors to HTTP status codes and counts them.
func (r *Router) statusFor(err error) int {
	var rerr *plugin.ResolutionError
	switch {
	case errors.Is(err, plugin.ErrPluginNotFound), errors.Is(err, plugin.ErrResourceNotFound):
		r.metrics.IncNotFound()
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, plugin.ErrManagerClosed):
		r.metrics.IncFailures()
		return http.StatusServiceUnavailable
	case errors.As(err, &rerr):
		r.metrics.IncFailures()
		return http.StatusBadGateway
	default:
		r.metrics.IncFailures()
		return http.StatusInternalServerError
	}
}
