// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name>; cmd/web constructs
// it with its dependencies and calls component.Register().  The bootstrap
// then mounts every component's Routes() under its MountPath().  Keeping
// the registry free of concrete types avoids import cycles between
// components and the packages they build on.

package component

import (
	"sync"

	"github.com/go-chi/chi/v5"
)

// Component contract.
//
// MountPath() is the router prefix ("/" is allowed for the public pages
// component).  Routes() should mount BOTH page and API endpoints, e.g:
//
//	r := chi.NewRouter()
//	r.Get("/qr", getQR)
//	r.Route("/api", func(api chi.Router) { ... })
//	return r
type Component interface {
	Name() string
	MountPath() string
	Routes() chi.Router
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
	order    []string
)

// Register is invoked from cmd/web once per constructed component.
func Register(c Component) {
	mu.Lock()
	if _, dup := registry[c.Name()]; !dup {
		order = append(order, c.Name())
	}
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component in registration order.  Order
// matters: the public pages component mounts at "/" and must come last so
// it does not shadow the others.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, name := range order {
		out = append(out, registry[name])
	}
	return out
}
