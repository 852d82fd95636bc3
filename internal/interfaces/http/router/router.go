package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts routes under a parent group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router serves registrars under /api/<version>. Protected registrars sit
// behind the auth chain, public ones do not.
type Router struct {
	engine    *gin.Engine
	version   string
	auth      []gin.HandlerFunc
	public    []RouteRegistrar
	protected []RouteRegistrar
}

// NewRouter returns a router for /api/<version> with auth in front of every
// protected route
func NewRouter(engine *gin.Engine, version string, auth ...gin.HandlerFunc) *Router {
	if version == "" {
		version = "v1"
	}
	return &Router{engine: engine, version: version, auth: auth}
}

func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.protected = append(r.protected, registrars...)
	return r
}

func (r *Router) RegisterPublic(registrars ...RouteRegistrar) *Router {
	r.public = append(r.public, registrars...)
	return r
}

// Setup mounts everything registered so far on the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.version)
	mount(api, r.public)
	mount(api.Group("", r.auth...), r.protected)
}

func mount(rg *gin.RouterGroup, registrars []RouteRegistrar) {
	for _, reg := range registrars {
		reg.RegisterRoutes(rg)
	}
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// Group declares routes under a path prefix ahead of mounting. Routes are
// added in declaration order, so declare static segments such as /balance
// before /:id.
type Group struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
	children   []*Group
}

func NewGroup(prefix string, middleware ...gin.HandlerFunc) *Group {
	return &Group{prefix: prefix, middleware: middleware}
}

// Sub declares a nested group that inherits g's middleware
func (g *Group) Sub(prefix string, middleware ...gin.HandlerFunc) *Group {
	child := NewGroup(prefix, middleware...)
	g.children = append(g.children, child)
	return child
}

func (g *Group) GET(path string, h ...gin.HandlerFunc) *Group {
	return g.add(http.MethodGet, path, h)
}

func (g *Group) POST(path string, h ...gin.HandlerFunc) *Group {
	return g.add(http.MethodPost, path, h)
}

func (g *Group) PUT(path string, h ...gin.HandlerFunc) *Group {
	return g.add(http.MethodPut, path, h)
}

func (g *Group) DELETE(path string, h ...gin.HandlerFunc) *Group {
	return g.add(http.MethodDelete, path, h)
}

func (g *Group) add(method, path string, h []gin.HandlerFunc) *Group {
	g.routes = append(g.routes, route{method: method, path: path, handlers: h})
	return g
}

func (g *Group) RegisterRoutes(rg *gin.RouterGroup) {
	sub := rg.Group(g.prefix, g.middleware...)
	for _, rt := range g.routes {
		sub.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, child := range g.children {
		child.RegisterRoutes(sub)
	}
}
