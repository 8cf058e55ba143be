// Package api defines the JSON wire types shared by the HTTP server and the CLI client.
package api

import "time"

// Availability is a stored availability record as sent over the wire.
type Availability struct {
	ID         string    `json:"_id"`
	CalendarID string    `json:"calendarId"`
	Date       time.Time `json:"date"`
	TimeSlot   string    `json:"timeSlot"`
	Location   string    `json:"location"`
	Name       string    `json:"name"`
	Color      string    `json:"color,omitempty"`
	Icon       string    `json:"icon,omitempty"`
	Recurring  bool      `json:"recurring"`
	Section    string    `json:"section"`
	Joiners    []string  `json:"joiners"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreateAvailabilityRequest is the body of POST /api/availability.
// Date accepts RFC 3339 or YYYY-MM-DD.
type CreateAvailabilityRequest struct {
	CalendarID string `json:"calendarId"`
	Date       string `json:"date"`
	TimeSlot   string `json:"timeSlot"`
	Location   string `json:"location"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Icon       string `json:"icon"`
	Recurring  bool   `json:"recurring"`
	Section    string `json:"section"`
}

// UpdateAvailabilityRequest is the body of PUT /api/availability/:id.
// Only these fields are honored; anything else in the body is ignored.
type UpdateAvailabilityRequest struct {
	CalendarID string  `json:"calendarId,omitempty"`
	TimeSlot   *string `json:"timeSlot,omitempty"`
	Location   *string `json:"location,omitempty"`
	Icon       *string `json:"icon,omitempty"`
	Recurring  *bool   `json:"recurring,omitempty"`
	Section    *string `json:"section,omitempty"`
}

// JoinRequest is the body of the join, unjoin and toggle endpoints.
type JoinRequest struct {
	Name       string `json:"name"`
	CalendarID string `json:"calendarId,omitempty"`
}

// ToggleResponse reports the event after a toggle and the resulting membership.
type ToggleResponse struct {
	Event  Availability `json:"event"`
	Joined bool         `json:"joined"`
}

// Occurrence is one expanded appearance of an availability.
type Occurrence struct {
	Key      string       `json:"key"`
	Day      string       `json:"day"` // YYYY-MM-DD
	Original bool         `json:"original"`
	Event    Availability `json:"event"`
}

// Calendar is a registry entry.
type Calendar struct {
	CalendarID      string    `json:"calendarId"`
	DefaultColor    string    `json:"defaultColor"`
	DefaultDarkMode bool      `json:"defaultDarkMode"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CreateCalendarRequest is the body of POST /api/calendars.
type CreateCalendarRequest struct {
	CalendarID      string `json:"calendarId"`
	DefaultColor    string `json:"defaultColor"`
	DefaultDarkMode bool   `json:"defaultDarkMode"`
}

// VerifyRequest is the body of POST /api/admin/verify.
type VerifyRequest struct {
	Password string `json:"password"`
}

// VerifyResponse carries the admin token after a successful check.
type VerifyResponse struct {
	OK        bool      `json:"ok"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IdentityRequest is the body of POST /api/identity.
type IdentityRequest struct {
	Name string `json:"name"`
}

// IdentityResponse carries a participant identity token.
type IdentityResponse struct {
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Health is the body of GET /healthz.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Message string `json:"message"`
}
