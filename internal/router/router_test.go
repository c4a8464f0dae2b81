package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cclaudio/trustee/internal/config"
	"github.com/cclaudio/trustee/internal/observability"
	"github.com/cclaudio/trustee/internal/plugin"
)

type stubPlugin struct {
	name string
	fn   func(resource, query string) ([]byte, error)
}

func (p stubPlugin) Name() string { return p.name }

func (p stubPlugin) GetResource(_ context.Context, resource, query string) ([]byte, error) {
	return p.fn(resource, query)
}

func stub(name string, fn func(resource, query string) ([]byte, error)) plugin.Builder {
	return plugin.BuilderFunc{PluginName: name, Func: func(string) (plugin.Plugin, error) {
		return stubPlugin{name: name, fn: fn}, nil
	}}
}

func newTestRouter(t *testing.T, srv config.ServerConfig) (*Router, *observability.Metrics) {
	t.Helper()
	builders := []plugin.Builder{
		stub("echo", func(resource, query string) ([]byte, error) { return []byte(resource + "?" + query), nil }),
		stub("empty", func(resource, _ string) ([]byte, error) {
			return nil, fmt.Errorf("%w: %s", plugin.ErrResourceNotFound, resource)
		}),
		stub("broken", func(string, string) ([]byte, error) { return nil, errors.New("backend down") }),
	}
	m, err := plugin.NewManagerWithBuilders(config.RepositoryConfig{
		WorkDir:        t.TempDir(),
		EnabledPlugins: []string{"echo", "empty", "broken"},
	}, builders, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })

	metrics := observability.NewMetrics()
	r, err := NewRouter(srv, m, metrics, nil)
	require.NoError(t, err)
	return r, metrics
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "1.2.3.4:12345"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouterDispatch(t *testing.T) {
	r, metrics := newTestRouter(t, config.ServerConfig{})

	rec := get(r, "http://kbs/kbs/v0/echo/foo?bar=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "foo?bar=1", rec.Body.String())
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))

	rec = get(r, "http://kbs/kbs/v0/echo/default/key/1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "default/key/1?", rec.Body.String())

	assert.Equal(t, observability.Snapshot{Requests: 2}, metrics.Snapshot())
}

func TestRouterErrors(t *testing.T) {
	r, metrics := newTestRouter(t, config.ServerConfig{})

	cases := []struct {
		target string
		code   int
	}{
		{"http://kbs/kbs/v0/missing/foo", http.StatusNotFound},
		{"http://kbs/kbs/v0/empty/foo", http.StatusNotFound},
		{"http://kbs/kbs/v0/broken/foo", http.StatusBadGateway},
		{"http://kbs/other", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := get(r, tc.target)
		assert.Equal(t, tc.code, rec.Code, tc.target)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "http://kbs/kbs/v0/echo/foo", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	assert.Equal(t, observability.Snapshot{Requests: 3, NotFound: 2, Failures: 1}, metrics.Snapshot())
}

func TestRouterRateLimit(t *testing.T) {
	r, metrics := newTestRouter(t, config.ServerConfig{RateLimit: config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1}})

	assert.Equal(t, http.StatusOK, get(r, "http://kbs/kbs/v0/echo/foo").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "http://kbs/kbs/v0/echo/foo").Code)
	// limits are per plugin
	assert.Equal(t, http.StatusNotFound, get(r, "http://kbs/kbs/v0/empty/foo").Code)
	assert.EqualValues(t, 1, metrics.Snapshot().RateLimited)
}

func TestRouterClosedManager(t *testing.T) {
	m, err := plugin.NewManagerWithBuilders(config.RepositoryConfig{WorkDir: t.TempDir(), EnabledPlugins: []string{"echo"}},
		[]plugin.Builder{stub("echo", func(string, string) ([]byte, error) { return nil, nil })}, nil)
	require.NoError(t, err)
	require.NoError(t, m.Close(context.Background()))

	r, err := NewRouter(config.ServerConfig{}, m, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, get(r, "http://kbs/kbs/v0/echo/foo").Code)
}

func TestNewRouterRequiresDispatcher(t *testing.T) {
	_, err := NewRouter(config.ServerConfig{}, nil, nil, nil)
	require.Error(t, err)
}
