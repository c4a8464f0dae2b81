// Package plugin hosts repository plugins: compiled-in units that answer GET
// requests for named resources. Builders turn configuration into live plugins,
// a Manager holds them and dispatches requests by plugin name.
package plugin

import "context"

// Plugin answers resource requests. The Manager serializes every call made on
// a given instance, so implementations need no locking of their own.
type Plugin interface {
	Name() string
	// GetResource returns the resource payload. The format of the bytes is
	// plugin-defined. Missing resources should wrap ErrResourceNotFound.
	GetResource(ctx context.Context, resource, queryString string) ([]byte, error)
}

// Builder constructs a Plugin rooted at a private working directory.
// Builders are stateless and registered at init time.
type Builder interface {
	Name() string
	Build(workDir string) (Plugin, error)
}

// BuilderFunc adapts a name and a function to the Builder interface.
type BuilderFunc struct {
	PluginName string
	Func       func(workDir string) (Plugin, error)
}

func (b BuilderFunc) Name() string { return b.PluginName }

func (b BuilderFunc) Build(workDir string) (Plugin, error) { return b.Func(workDir) }
