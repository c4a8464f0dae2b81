package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/cclaudio/trustee/internal/config"
	"github.com/cclaudio/trustee/internal/observability"
)

// ErrManagerClosed is returned by Dispatch after Close.
var ErrManagerClosed = errors.New("plugin manager closed")

// handle guards one live plugin. The semaphore has a single slot so callers
// waiting for a busy plugin can give up through their context. closed is only
// read or written while the slot is held.
type handle struct {
	name    string
	builder string
	lock    *semaphore.Weighted
	plugin  Plugin
	closed  bool
}

func newHandle(builder string, p Plugin) *handle {
	return &handle{name: p.Name(), builder: builder, lock: semaphore.NewWeighted(1), plugin: p}
}

func (h *handle) with(ctx context.Context, fn func(*handle) error) error {
	// A free slot is taken even when ctx is already done.
	if !h.lock.TryAcquire(1) {
		if err := h.lock.Acquire(ctx, 1); err != nil {
			return err
		}
	}
	defer h.lock.Release(1)
	return fn(h)
}

// Manager holds the plugins enabled by configuration. Membership is fixed at
// construction, so lookups need no coordination; each plugin has its own lock.
type Manager struct {
	handles []*handle
	byName  map[string]*handle
	logger  *observability.Logger

	closed  atomic.Bool
	closeMu sync.Mutex
}

// NewManager builds every enabled plugin from the compiled-in catalog.
func NewManager(cfg config.RepositoryConfig, logger *observability.Logger) (*Manager, error) {
	return NewManagerWithBuilders(cfg, Builders(), logger)
}

// NewManagerWithBuilders builds every enabled plugin from the given builders.
// Construction is all-or-nothing: on any error the plugins built so far are
// closed and no Manager is returned.
func NewManagerWithBuilders(cfg config.RepositoryConfig, builders []Builder, logger *observability.Logger) (*Manager, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	// Resolve every name before touching the filesystem.
	selected := make([]Builder, 0, len(cfg.EnabledPlugins))
	seen := make(map[string]struct{}, len(cfg.EnabledPlugins))
	for _, name := range cfg.EnabledPlugins {
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: plugin %s enabled more than once", ErrConfiguration, name)
		}
		seen[name] = struct{}{}
		b, ok := findBuilder(builders, name)
		if !ok {
			return nil, fmt.Errorf("%w: plugin %s is not compiled in", ErrConfiguration, name)
		}
		selected = append(selected, b)
	}

	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("%w: work dir not set", ErrSetup)
	}
	if err := os.MkdirAll(cfg.WorkDir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create work dir: %w", ErrSetup, err)
	}

	m := &Manager{
		handles: make([]*handle, 0, len(selected)),
		byName:  make(map[string]*handle, len(selected)),
		logger:  logger,
	}
	for _, b := range selected {
		h, err := build(b, cfg.WorkDir)
		if err != nil {
			_ = m.closeAll(context.Background())
			return nil, err
		}
		m.handles = append(m.handles, h)
		if prev, dup := m.byName[h.name]; dup {
			logger.Warnw("plugin name shadowed by earlier registration", "plugin", h.name, "builder", h.builder, "shadowed_by", prev.builder)
			continue
		}
		m.byName[h.name] = h
		logger.Infow("plugin loaded", "plugin", h.name, "builder", h.builder)
	}
	logger.Infow("plugins loaded", "count", len(m.handles))
	return m, nil
}

func build(b Builder, workDir string) (*handle, error) {
	dir := filepath.Join(workDir, b.Name())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create dir for plugin %s: %w", ErrSetup, b.Name(), err)
	}
	p, err := b.Build(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: plugin %s: %w", ErrBuild, b.Name(), err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: plugin %s: builder returned no plugin", ErrBuild, b.Name())
	}
	return newHandle(b.Name(), p), nil
}

// Dispatch forwards a resource request to the plugin named pluginName. The
// plugin's lock is held for the whole GetResource call, so requests to the
// same plugin run one at a time while requests to different plugins do not
// wait on each other. If ctx ends while waiting for the lock, ctx.Err() is
// returned.
func (m *Manager) Dispatch(ctx context.Context, pluginName, resource, queryString string) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}
	h, ok := m.byName[pluginName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, pluginName)
	}

	var out []byte
	err := h.with(ctx, func(h *handle) error {
		if h.closed {
			return ErrManagerClosed
		}
		data, err := h.plugin.GetResource(ctx, resource, queryString)
		if err != nil {
			return &ResolutionError{Plugin: h.name, Err: err}
		}
		out = data
		return nil
	})
	if err != nil {
		m.logger.Debugw("dispatch failed", "plugin", pluginName, "resource", resource, "err", err)
		return nil, err
	}
	m.logger.Debugw("dispatched", "plugin", pluginName, "resource", resource, "bytes", len(out))
	return out, nil
}

// Plugins lists the live plugin names in registration order.
func (m *Manager) Plugins() []string {
	names := make([]string, 0, len(m.handles))
	for _, h := range m.handles {
		names = append(names, h.name)
	}
	return names
}

// Close releases every plugin that implements io.Closer, waiting for in-flight
// requests on each. A plugin still busy when ctx ends is reported in the
// returned error and left open; the others are closed regardless. Calling Close
// again retries only the plugins left open.
func (m *Manager) Close(ctx context.Context) error {
	m.closed.Store(true)
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	return m.closeAll(ctx)
}

func (m *Manager) closeAll(ctx context.Context) error {
	var errs error
	for i := len(m.handles) - 1; i >= 0; i-- {
		h := m.handles[i]
		err := h.with(ctx, func(h *handle) error {
			if h.closed {
				return nil
			}
			h.closed = true
			if c, ok := h.plugin.(io.Closer); ok {
				return c.Close()
			}
			return nil
		})
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("close plugin %s: %w", h.name, err))
		}
	}
	return errs
}
