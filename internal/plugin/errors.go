package plugin

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when enabled plugins cannot be matched to builders.
	ErrConfiguration = errors.New("plugin configuration error")
	// ErrSetup is returned when a working directory cannot be prepared.
	ErrSetup = errors.New("plugin setup error")
	// ErrBuild is returned when a builder fails to construct its plugin.
	ErrBuild = errors.New("plugin build error")
	// ErrPluginNotFound is returned by Dispatch when no live plugin has the requested name.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrResourceNotFound is wrapped by plugins that do not hold the requested resource.
	ErrResourceNotFound = errors.New("resource not found")
)

// ResolutionError carries the error returned by a plugin's GetResource as is.
type ResolutionError struct {
	Plugin string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("plugin %s: %v", e.Plugin, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
