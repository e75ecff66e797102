// Package diag is a tiny read-only HTTP introspection surface over a ZNP
// controller: catalog listing and correlation-core/connection status. It
// is an operability aid, not part of the control path, and never mutates
// anything.
package diag

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/urmzd/go-znp/pkg/mt/catalog"
)

// Source is the minimal view into a running controller this surface
// needs. *znp.Controller satisfies it structurally.
type Source interface {
	Catalog() *catalog.Catalog
	Connected() bool
}

// Router holds the Gin engine and the controller it reports on.
type Router struct {
	engine *gin.Engine
	source Source
}

// NewRouter builds a Router over source.
func NewRouter(source Source) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	setupMiddleware(engine)

	r := &Router{engine: engine, source: source}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.engine.GET("/status", r.status)

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/status", r.status)
		v1.GET("/catalog", r.listCatalog)
		v1.GET("/catalog/:name", r.getCatalogEntry)
	}
}

func (r *Router) status(c *gin.Context) {
	connected := r.source.Connected()
	status := "connected"
	httpStatus := http.StatusOK
	if !connected {
		status = "disconnected"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, StatusResponse{
		Status:      status,
		Connected:   connected,
		CatalogSize: r.source.Catalog().Len(),
		Timestamp:   time.Now(),
	})
}

func (r *Router) listCatalog(c *gin.Context) {
	classes := r.source.Catalog().Classes()
	out := make([]CommandSummary, 0, len(classes))
	for _, class := range classes {
		out = append(out, summarize(class))
	}
	c.JSON(http.StatusOK, out)
}

func (r *Router) getCatalogEntry(c *gin.Context) {
	class, ok := r.source.Catalog().ByName(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown command"})
		return
	}
	c.JSON(http.StatusOK, summarize(class))
}

func summarize(class *catalog.Class) CommandSummary {
	return CommandSummary{
		Name:      class.Name,
		Subsystem: class.Subsystem.String(),
		Kind:      class.Kind.String(),
		Header:    class.Header.Raw(),
	}
}

// Run starts the HTTP server on addr, blocking until it exits.
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
