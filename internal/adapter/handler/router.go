package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/johnquangdev/todo-maker/internal/adapter/dto/common"
	"github.com/johnquangdev/todo-maker/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg        *config.Config
	jobHandler *Job
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, jobHandler *Job) *Router {
	return &Router{
		cfg:        cfg,
		jobHandler: jobHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	jobs := e.Group("/jobs")
	if rt.cfg != nil && rt.cfg.Storage.MaxUploadMB > 0 {
		jobs.Use(middleware.BodyLimit(fmt.Sprintf("%dM", rt.cfg.Storage.MaxUploadMB)))
	}
	rt.setupJobRoutes(jobs)
}

// setupJobRoutes configures job routes
func (rt *Router) setupJobRoutes(g *echo.Group) {
	g.POST("/upload", rt.jobHandler.Upload)
	g.GET("/:id", rt.jobHandler.Status)
	g.GET("/:id/result", rt.jobHandler.Result)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, common.HealthResponse{Status: "ok"})
}
