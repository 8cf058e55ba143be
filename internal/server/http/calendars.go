package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mschachner/drop-in/internal/api"
	"github.com/mschachner/drop-in/internal/convert"
	"github.com/mschachner/drop-in/internal/ical"
	"github.com/mschachner/drop-in/internal/model"
)

func (s *Server) listCalendars(c *gin.Context) {
	list, err := s.Calendars.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToAPICalendars(list))
}

func (s *Server) getCalendar(c *gin.Context) {
	cal, err := s.Calendars.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToAPICalendar(*cal))
}

func (s *Server) createCalendar(c *gin.Context) {
	var req api.CreateCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	cal, err := s.Calendars.Create(c.Request.Context(), convert.FromCreateCalendarRequest(req))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, convert.ToAPICalendar(*cal))
}

func (s *Server) deleteCalendar(c *gin.Context) {
	if err := s.Calendars.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) feed(c *gin.Context) {
	ctx := c.Request.Context()
	cal, err := s.Calendars.Get(ctx, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	events, err := s.Availability.List(ctx, model.Session{CalendarID: cal.ID})
	if err != nil {
		s.writeError(c, err)
		return
	}
	body := ical.Feed(*cal, events, s.Location, time.Now())
	c.Header("Content-Disposition", `inline; filename="`+cal.ID+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func (s *Server) verifyAdmin(c *gin.Context) {
	var req api.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	token, exp, err := s.Admin.Verify(c.Request.Context(), req.Password, c.ClientIP())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.VerifyResponse{OK: true, Token: token, ExpiresAt: exp})
}

func (s *Server) issueIdentity(c *gin.Context) {
	var req api.IdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	token, exp, err := s.Identity.Issue(c.Request.Context(), req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.IdentityResponse{Name: strings.TrimSpace(req.Name), Token: token, ExpiresAt: exp})
}

func (s *Server) health(c *gin.Context) {
	if s.Pinger != nil {
		if err := s.Pinger.Ping(c.Request.Context()); err != nil {
			s.Log.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, api.Health{Status: "unavailable", Version: s.Version})
			return
		}
	}
	c.JSON(http.StatusOK, api.Health{Status: "ok", Version: s.Version})
}
