package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Compile-time catalog of built-in plugin builders.

var (
	catalogMu sync.RWMutex
	catalog   = map[string]Builder{}
)

// Register adds a builder to the catalog. It is meant to be called from init
// and panics on an empty or already registered name.
func Register(b Builder) {
	name := b.Name()
	if name == "" {
		panic("plugin: Register called with empty builder name")
	}
	catalogMu.Lock()
	defer catalogMu.Unlock()
	if _, dup := catalog[name]; dup {
		panic(fmt.Sprintf("plugin: builder %q registered twice", name))
	}
	catalog[name] = b
}

// Builders returns every registered builder ordered by name.
func Builders() []Builder {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	out := make([]Builder, 0, len(catalog))
	for _, b := range catalog {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func findBuilder(builders []Builder, name string) (Builder, bool) {
	for _, b := range builders {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}
