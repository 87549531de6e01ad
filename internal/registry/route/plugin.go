package route

import (
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// RouterLoader initializes one group of care API routes on the gin engine.
type RouterLoader func(r *gin.Engine) error

// RouteType distinguishes which listener a plugin's routes belong to.
type RouteType int

const (
	// RouteTypeMain registers routes on the main care API listener.
	RouteTypeMain RouteType = iota
	// RouteTypeManagement registers routes on the management listener
	// (health, ready, metrics). Without a dedicated management port they
	// are mounted on the main listener instead.
	RouteTypeManagement
)

// Plugin represents a route plugin with an order for deterministic mount sequence.
type Plugin struct {
	Order  int
	Type   RouteType
	Loader RouterLoader
}

var (
	plugins  []Plugin
	sortOnce sync.Once
)

// Register adds a route plugin. Called from init() in plugin packages.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

func sorted() []Plugin {
	sortOnce.Do(func() {
		sort.Slice(plugins, func(i, j int) bool { return plugins[i].Order < plugins[j].Order })
	})
	return plugins
}

func loaders(t RouteType) []RouterLoader {
	var out []RouterLoader
	for _, p := range sorted() {
		if p.Type == t {
			out = append(out, p.Loader)
		}
	}
	return out
}

// MainRouteLoaders returns the loaders for the main listener, sorted by order.
func MainRouteLoaders() []RouterLoader { return loaders(RouteTypeMain) }

// ManagementRouteLoaders returns the loaders for the management listener,
// sorted by order.
func ManagementRouteLoaders() []RouterLoader { return loaders(RouteTypeManagement) }
