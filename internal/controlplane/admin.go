package controlplane

import (
	"encoding/json"
	"net/http"

	"github.com/cclaudio/trustee/internal/config"
	"github.com/cclaudio/trustee/internal/observability"
)

// PluginLister reports the live plugin names.
type PluginLister interface {
	Plugins() []string
}

func RegisterAdminHandlers(mux *http.ServeMux, metrics *observability.Metrics, cfg *config.Config, plugins PluginLister, logger *observability.Logger) {
	mux.Handle("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /config", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, cfg, logger)
	}))
	mux.Handle("GET /plugins", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string][]string{"plugins": plugins.Plugins()}, logger)
	}))
}

func writeJSON(w http.ResponseWriter, v any, logger *observability.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorw("admin response encode failed", "err", err)
	}
}
