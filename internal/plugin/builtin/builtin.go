// Package builtin links every compiled-in repository plugin into the
// plugin catalog. Import it for its side effects.
package builtin

import (
	_ "github.com/cclaudio/trustee/internal/plugin/localfs"
	_ "github.com/cclaudio/trustee/internal/plugin/vault"
)
