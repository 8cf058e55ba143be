// Package httpserver exposes the availability API over HTTP/JSON using gin.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mschachner/drop-in/internal/api"
	"github.com/mschachner/drop-in/internal/recurrence"
	"github.com/mschachner/drop-in/internal/service"
)

// Pinger reports storage liveness for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router needs.
type Deps struct {
	Availability service.AvailabilityService
	Membership   service.MembershipService
	Calendars    service.CalendarService
	Admin        service.AdminService
	Identity     service.IdentityService
	Pinger       Pinger

	Log     *zap.Logger
	Metrics *Metrics

	// Location reads bare dates and renders feeds. Nil means time.Local.
	Location *time.Location
	// WindowDays is the default width of /api/occurrences.
	WindowDays int
	// ProtectRegistry requires an admin token to list or delete calendars.
	ProtectRegistry bool
	Version         string
}

// Server wires services into gin handlers.
type Server struct {
	Deps
}

// New builds the router with all middleware and routes installed.
func New(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.WindowDays <= 0 {
		d.WindowDays = recurrence.DefaultWindowDays
	}
	s := &Server{Deps: d}

	r := gin.New()
	r.Use(Recover(d.Log), AccessLog(d.Log), d.Metrics.Middleware(), Bearer())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/api")
	{
		av := v1.Group("/availability")
		av.GET("", s.listAvailability)
		av.POST("", s.createAvailability)
		av.PUT("/:id", s.updateAvailability)
		av.DELETE("/:id", s.deleteAvailability)
		av.POST("/:id/join", s.join)
		av.POST("/:id/unjoin", s.unjoin)
		av.POST("/:id/toggle", s.toggle)

		v1.GET("/occurrences", s.occurrences)

		cals := v1.Group("/calendars")
		cals.GET("", s.adminOnly(), s.listCalendars)
		cals.POST("", s.createCalendar)
		cals.GET("/:id", s.getCalendar)
		cals.DELETE("/:id", s.adminOnly(), s.deleteCalendar)
		cals.GET("/:id/feed.ics", s.feed)

		v1.POST("/admin/verify", s.verifyAdmin)
		v1.POST("/identity", s.issueIdentity)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, api.Error{Message: "route not found"})
	})
	return r
}
