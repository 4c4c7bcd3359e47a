package cal

import (
	"fmt"
	"sync"
)

// Factory constructs a fresh Backend instance for one adapter's lifetime.
type Factory func() Backend

var (
	registryMu sync.Mutex
	registry   = map[string]Factory{}
)

// Register adds a named backend factory, keyed by the plugin_name the
// server config selects (spec §6, edss_config.plugin_name). Call from an
// init() in the package providing the backend.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// newBackend looks up and instantiates a registered backend by name.
func newBackend(name string) (Backend, error) {
	registryMu.Lock()
	factory, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("cal: unknown plugin %q", name)
	}
	return factory(), nil
}

func init() {
	Register("loopback", func() Backend { return newLoopbackBackend() })
}
