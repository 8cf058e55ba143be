package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/mschachner/drop-in/internal/api"
	"github.com/mschachner/drop-in/internal/convert"
	"github.com/mschachner/drop-in/internal/model"
)

// session resolves the request session; an invalid bearer token is written as 401.
func (s *Server) session(c *gin.Context, calendarID, participant string) (model.Session, bool) {
	sess, err := s.Identity.Session(calendarID, participant, bearer(c))
	if err != nil {
		s.writeError(c, err)
		return model.Session{}, false
	}
	return sess, true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// bindOptional decodes a JSON body when one was sent.
func bindOptional(c *gin.Context, v any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// calendarOf picks the calendar for id-addressed routes: query, then body.
func calendarOf(c *gin.Context, body string) string {
	if q := strings.TrimSpace(c.Query("calendarId")); q != "" {
		return q
	}
	return body
}

func (s *Server) listAvailability(c *gin.Context) {
	sess, ok := s.session(c, c.Query("calendarId"), "")
	if !ok {
		return
	}
	list, err := s.Availability.List(c.Request.Context(), sess)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToAPIAvailabilities(list))
}

func (s *Server) createAvailability(c *gin.Context) {
	var req api.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	a, err := convert.FromCreateRequest(req, s.Location)
	if err != nil {
		s.writeError(c, err)
		return
	}
	sess, ok := s.session(c, req.CalendarID, req.Name)
	if !ok {
		return
	}
	created, err := s.Availability.Create(c.Request.Context(), sess, a)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, convert.ToAPIAvailability(*created))
}

func (s *Server) updateAvailability(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req api.UpdateAvailabilityRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	sess, ok := s.session(c, calendarOf(c, req.CalendarID), "")
	if !ok {
		return
	}
	updated, err := s.Availability.Update(c.Request.Context(), sess, id, convert.FromUpdateRequest(req))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToAPIAvailability(*updated))
}

func (s *Server) deleteAvailability(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		CalendarID string `json:"calendarId"`
	}
	if err := bindOptional(c, &body); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	sess, ok := s.session(c, calendarOf(c, body.CalendarID), "")
	if !ok {
		return
	}
	if err := s.Availability.Delete(c.Request.Context(), sess, id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// membershipRequest decodes the shared join/unjoin/toggle input.
func (s *Server) membershipRequest(c *gin.Context) (uuid.UUID, model.Session, string, bool) {
	id, ok := pathID(c)
	if !ok {
		return uuid.Nil, model.Session{}, "", false
	}
	var req api.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return uuid.Nil, model.Session{}, "", false
	}
	sess, ok := s.session(c, calendarOf(c, req.CalendarID), "")
	if !ok {
		return uuid.Nil, model.Session{}, "", false
	}
	return id, sess, req.Name, true
}

func (s *Server) join(c *gin.Context) {
	id, sess, name, ok := s.membershipRequest(c)
	if !ok {
		return
	}
	ev, err := s.Membership.Join(c.Request.Context(), sess, id, name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.Metrics.MembershipChanged("join")
	c.JSON(http.StatusOK, convert.ToAPIAvailability(*ev))
}

func (s *Server) unjoin(c *gin.Context) {
	id, sess, name, ok := s.membershipRequest(c)
	if !ok {
		return
	}
	ev, err := s.Membership.Unjoin(c.Request.Context(), sess, id, name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.Metrics.MembershipChanged("unjoin")
	c.JSON(http.StatusOK, convert.ToAPIAvailability(*ev))
}

func (s *Server) toggle(c *gin.Context) {
	id, sess, name, ok := s.membershipRequest(c)
	if !ok {
		return
	}
	ev, joined, err := s.Membership.Toggle(c.Request.Context(), sess, id, name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.Metrics.MembershipChanged("toggle")
	c.JSON(http.StatusOK, api.ToggleResponse{Event: convert.ToAPIAvailability(*ev), Joined: joined})
}

func (s *Server) occurrences(c *gin.Context) {
	loc := s.Location
	if tz := strings.TrimSpace(c.Query("tz")); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			badRequest(c, "unknown time zone "+strconv.Quote(tz))
			return
		}
		loc = l
	}
	start, err := convert.ParseDate(c.Query("start"), loc)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if start.IsZero() {
		start = time.Now()
	}
	// bucket days in the requested zone, not the offset the timestamp was written in
	start = start.In(loc)
	days := s.WindowDays
	if d := c.Query("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n <= 0 {
			badRequest(c, "days must be a positive integer")
			return
		}
		days = n
	}

	sess, ok := s.session(c, c.Query("calendarId"), "")
	if !ok {
		return
	}
	out, err := s.Availability.Occurrences(c.Request.Context(), sess, start, days)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToAPIOccurrences(out))
}
