// Package router mounts the bookkeeping API on a gin engine and keeps a
// described listing of every endpoint.
package router

import (
	"path"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts its routes under a versioned group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under /api/<version>
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the base path (default "v1")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

// NewRouter creates a Router for engine
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues registrars for Setup
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// BasePath is the versioned prefix every registrar is mounted under
func (r *Router) BasePath() string {
	return "/api/" + r.apiVersion
}

// Setup mounts every queued registrar on the engine
func (r *Router) Setup() {
	api := r.engine.Group(r.BasePath())
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// Route describes one mounted endpoint
type Route struct {
	Method      string
	Path        string
	Description string
}

// Routes lists the endpoints of every registered RouteGroup with full paths
func (r *Router) Routes() []Route {
	var out []Route
	for _, registrar := range r.registrars {
		if g, ok := registrar.(*RouteGroup); ok {
			out = append(out, g.routesUnder(r.BasePath())...)
		}
	}
	return out
}

// RouteGroup is a described set of endpoints sharing a prefix and middleware
type RouteGroup struct {
	prefix     string
	routes     []routeDefinition
	subgroups  []*RouteGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	Route
	handlers []gin.HandlerFunc
}

// NewRouteGroup creates a group mounted at prefix
func NewRouteGroup(prefix string) *RouteGroup {
	return &RouteGroup{prefix: prefix}
}

// Use adds middleware applied to every route of the group
func (g *RouteGroup) Use(middleware ...gin.HandlerFunc) *RouteGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

// Handle adds an endpoint; description shows up in Router.Routes
func (g *RouteGroup) Handle(method, relativePath, description string, handlers ...gin.HandlerFunc) *RouteGroup {
	g.routes = append(g.routes, routeDefinition{
		Route:    Route{Method: method, Path: relativePath, Description: description},
		handlers: handlers,
	})
	return g
}

// Group adds a nested group
func (g *RouteGroup) Group(prefix string) *RouteGroup {
	sub := NewRouteGroup(prefix)
	g.subgroups = append(g.subgroups, sub)
	return sub
}

// RegisterRoutes implements RouteRegistrar
func (g *RouteGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(g.prefix, g.middleware...)
	for _, route := range g.routes {
		group.Handle(route.Method, route.Path, route.handlers...)
	}
	for _, sub := range g.subgroups {
		sub.RegisterRoutes(group)
	}
}

func (g *RouteGroup) routesUnder(base string) []Route {
	prefix := joinPath(base, g.prefix)
	out := make([]Route, 0, len(g.routes))
	for _, route := range g.routes {
		r := route.Route
		r.Path = joinPath(prefix, route.Path)
		out = append(out, r)
	}
	for _, sub := range g.subgroups {
		out = append(out, sub.routesUnder(prefix)...)
	}
	return out
}

// joinPath joins like gin does, without a trailing slash for empty paths
func joinPath(base, relative string) string {
	if relative == "" {
		return base
	}
	return path.Join(base, relative)
}
