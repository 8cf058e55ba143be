package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mschachner/drop-in/internal/api"
)

// client is a thin JSON client for the drop-in HTTP API.
type client struct {
	base  string
	token string
	hc    *http.Client
}

func newClient(addr, token string) *client {
	addr = strings.TrimRight(addr, "/")
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &client{base: addr, token: token, hc: &http.Client{Timeout: 15 * time.Second}}
}

// apiError is a non-2xx response.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// do sends in as JSON (when non-nil) and decodes the response into out (when non-nil).
func (c *client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e api.Error
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &e) != nil || e.Message == "" {
			e.Message = strings.TrimSpace(string(raw))
		}
		return &apiError{Status: resp.StatusCode, Message: e.Message}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func calendarQuery(cal string) url.Values {
	if cal == "" {
		return nil
	}
	return url.Values{"calendarId": {cal}}
}

func (c *client) listAvailability(ctx context.Context, cal string) ([]api.Availability, error) {
	var out []api.Availability
	err := c.do(ctx, http.MethodGet, "/api/availability", calendarQuery(cal), nil, &out)
	return out, err
}

func (c *client) createAvailability(ctx context.Context, req api.CreateAvailabilityRequest) (*api.Availability, error) {
	var out api.Availability
	if err := c.do(ctx, http.MethodPost, "/api/availability", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) deleteAvailability(ctx context.Context, cal, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/availability/"+url.PathEscape(id), calendarQuery(cal), nil, nil)
}

// membership posts to join, unjoin or toggle.
func (c *client) membership(ctx context.Context, op, cal, id, name string) (*api.Availability, error) {
	req := api.JoinRequest{Name: name, CalendarID: cal}
	path := "/api/availability/" + url.PathEscape(id) + "/" + op
	if op == "toggle" {
		var out api.ToggleResponse
		if err := c.do(ctx, http.MethodPost, path, nil, req, &out); err != nil {
			return nil, err
		}
		return &out.Event, nil
	}
	var out api.Availability
	if err := c.do(ctx, http.MethodPost, path, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) listCalendars(ctx context.Context) ([]api.Calendar, error) {
	var out []api.Calendar
	err := c.do(ctx, http.MethodGet, "/api/calendars", nil, nil, &out)
	return out, err
}

func (c *client) createCalendar(ctx context.Context, req api.CreateCalendarRequest) (*api.Calendar, error) {
	var out api.Calendar
	if err := c.do(ctx, http.MethodPost, "/api/calendars", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) identity(ctx context.Context, name string) (*api.IdentityResponse, error) {
	var out api.IdentityResponse
	if err := c.do(ctx, http.MethodPost, "/api/identity", nil, api.IdentityRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) verifyAdmin(ctx context.Context, password string) (*api.VerifyResponse, error) {
	var out api.VerifyResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/verify", nil, api.VerifyRequest{Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
