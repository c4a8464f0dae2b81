// Package localfs serves resources straight from the plugin's working directory.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cclaudio/trustee/internal/plugin"
)

const Name = "localfs"

// ErrInvalidPath is returned for resource paths escaping the working directory.
var ErrInvalidPath = errors.New("invalid resource path")

// Plugin reads files through an os.Root, so symlinks inside the working
// directory cannot reach files outside it.
type Plugin struct {
	root *os.Root
}

func New(dir string) (*Plugin, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open root %s: %w", dir, err)
	}
	return &Plugin{root: root}, nil
}

func (p *Plugin) Name() string { return Name }

// GetResource reads <root>/<resource>. The query string is ignored.
func (p *Plugin) GetResource(_ context.Context, resource, _ string) ([]byte, error) {
	if resource == "" || !filepath.IsLocal(resource) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, resource)
	}
	f, err := p.root.Open(resource)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", plugin.ErrResourceNotFound, resource)
		}
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", plugin.ErrResourceNotFound, resource)
	}
	return io.ReadAll(f)
}

func (p *Plugin) Close() error { return p.root.Close() }

func init() {
	plugin.Register(plugin.BuilderFunc{PluginName: Name, Func: func(workDir string) (plugin.Plugin, error) {
		p, err := New(workDir)
		if err != nil {
			return nil, err
		}
		return p, nil
	}})
}
