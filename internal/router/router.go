package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/pprofhandler"

	apiHandler "github.com/fastygo/sprintboard/api/handler"
)

type Handlers struct {
	Sprint   *apiHandler.SprintHandler
	Schedule *apiHandler.ScheduleHandler
	Health   *apiHandler.HealthHandler
	// Metrics is mounted at /metrics when set.
	Metrics fasthttp.RequestHandler
}

type Options struct {
	EnablePprof bool
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler, opts Options) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	if handlers.Metrics != nil {
		r.GET("/metrics", handlers.Metrics)
	}
	if opts.EnablePprof {
		r.GET("/debug/pprof/{profile:*}", pprofhandler.PprofHandler)
	}

	v1 := r.Group("/api/v1")

	// Sprints
	v1.GET("/sprints", authMiddleware(handlers.Sprint.List))
	v1.POST("/sprints", authMiddleware(handlers.Sprint.Create))
	v1.POST("/sprints/next", authMiddleware(handlers.Sprint.CreateNext))
	v1.GET("/sprints/current", authMiddleware(handlers.Sprint.Current))
	v1.GET("/sprints/active", authMiddleware(handlers.Sprint.Active))
	v1.GET("/sprints/find", authMiddleware(handlers.Sprint.Find))
	v1.GET("/sprints/{id}", authMiddleware(handlers.Sprint.Board))
	v1.PUT("/sprints/{id}", authMiddleware(handlers.Sprint.Update))
	v1.DELETE("/sprints/{id}", authMiddleware(handlers.Sprint.Delete))

	// Schedule
	v1.GET("/sprints/{id}/schedule", authMiddleware(handlers.Schedule.List))
	v1.POST("/sprints/{id}/schedule", authMiddleware(handlers.Schedule.Schedule))
	v1.DELETE("/sprints/{id}/schedule/{schedule_id}", authMiddleware(handlers.Schedule.Unschedule))

	return r
}
