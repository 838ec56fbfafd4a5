package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is the moderation state of a report. Any status may move to any
// other status; only a move into StatusApproved has a side effect.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Priority is the triage level officials assign to a report.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// SeverityColor maps a priority to the marker color used by the map layer.
// Unknown values fall back to the default blue.
func SeverityColor(p Priority) string {
	switch p {
	case PriorityLow:
		return "#2E7D32"
	case PriorityMedium:
		return "#F59E0B"
	case PriorityHigh:
		return "#FF5722"
	case PriorityCritical:
		return "#E53935"
	default:
		return "#1E90FF"
	}
}

// Report is a citizen- or official-submitted incident. The JSON field names
// match the remote OceanEye API so the same value can be persisted locally
// and mirrored remotely.
type Report struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	PhotoRef     string    `json:"photoDataUrl,omitempty"`
	VideoRef     string    `json:"videoDataUrl,omitempty"`
	CommentsText string    `json:"commentsText,omitempty"`
	Status       Status    `json:"status"`
	Priority     Priority  `json:"priority"`
	ReporterID   string    `json:"reporterId"`
	ReporterName string    `json:"reporterName,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Lat          *float64  `json:"lat,omitempty"`
	Lng          *float64  `json:"lng,omitempty"`
}

// Coordinates resolves the report position: explicit lat/lng first, then a
// "lat, lng" pair embedded in the free-text location.
func (r Report) Coordinates() (Geo, bool) {
	if r.Lat != nil && r.Lng != nil {
		return Geo{Lat: *r.Lat, Lng: *r.Lng}, true
	}
	return ParseLatLng(r.Location)
}

// ReporterLabel is the name shown in notifications for this report.
func (r Report) ReporterLabel() string {
	if r.ReporterName != "" {
		return r.ReporterName
	}
	if r.ReporterID != "" {
		return r.ReporterID
	}
	return "Reporter"
}

// Draft carries the caller-supplied fields of a new report.
type Draft struct {
	Type         string   `json:"type"`
	Description  string   `json:"description"`
	Location     string   `json:"location"`
	PhotoRef     string   `json:"photoDataUrl,omitempty"`
	VideoRef     string   `json:"videoDataUrl,omitempty"`
	CommentsText string   `json:"commentsText,omitempty"`
	ReporterID   string   `json:"reporterId,omitempty"`
	ReporterName string   `json:"reporterName,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
}

// Coordinates resolves the draft position the same way Report does.
func (d Draft) Coordinates() (Geo, bool) {
	if d.Lat != nil && d.Lng != nil {
		return Geo{Lat: *d.Lat, Lng: *d.Lng}, true
	}
	return ParseLatLng(d.Location)
}

// ValidationError describes a missing or malformed form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Normalize trims text fields. An empty location is left empty so reverse
// geocoding can still supply an address.
func (d Draft) Normalize() Draft {
	d.Type = strings.TrimSpace(d.Type)
	d.Description = strings.TrimSpace(d.Description)
	d.Location = strings.TrimSpace(d.Location)
	d.ReporterName = strings.TrimSpace(d.ReporterName)
	return d
}

// Validate checks the required form fields. A location may be omitted when
// explicit coordinates are present.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Type) == "" {
		return &ValidationError{Field: "type", Message: "hazard type is required"}
	}
	if strings.TrimSpace(d.Description) == "" {
		return &ValidationError{Field: "description", Message: "description is required"}
	}
	hasCoords := d.Lat != nil && d.Lng != nil
	if strings.TrimSpace(d.Location) == "" && !hasCoords {
		return &ValidationError{Field: "location", Message: "location is required"}
	}
	if hasCoords && (*d.Lat < -90 || *d.Lat > 90 || *d.Lng < -180 || *d.Lng > 180) {
		return &ValidationError{Field: "lat", Message: "coordinates out of range"}
	}
	return nil
}

// NewReport builds a pending, medium-priority report from a draft. A draft
// with coordinates but no location gets the "lat, lng" text as its location.
func NewReport(id, reporterID string, d Draft) Report {
	location := d.Location
	if location == "" && d.Lat != nil && d.Lng != nil {
		location = FormatLatLng(Geo{Lat: *d.Lat, Lng: *d.Lng})
	}
	return Report{
		ID:           id,
		Type:         d.Type,
		Description:  d.Description,
		Location:     location,
		PhotoRef:     d.PhotoRef,
		VideoRef:     d.VideoRef,
		CommentsText: d.CommentsText,
		Status:       StatusPending,
		Priority:     PriorityMedium,
		ReporterID:   reporterID,
		ReporterName: d.ReporterName,
		Timestamp:    Now(),
		Lat:          d.Lat,
		Lng:          d.Lng,
	}
}

// ReportEventType names a mutation of the report collection.
type ReportEventType string

const (
	ReportCreated         ReportEventType = "report.created"
	ReportStatusChanged   ReportEventType = "report.status_changed"
	ReportPriorityChanged ReportEventType = "report.priority_changed"
	ReportsCleared        ReportEventType = "reports.cleared"
)

// ReportEvent is emitted after every applied mutation.
type ReportEvent struct {
	Type       ReportEventType `json:"type"`
	ReportID   string          `json:"report_id,omitempty"`
	Report     *Report         `json:"report,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Notification is a user-visible informational message.
type Notification struct {
	Level    string    `json:"level"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	ReportID string    `json:"report_id,omitempty"`
	SentAt   time.Time `json:"sent_at"`
}

// ApprovalNotification builds the message shown when a report is approved.
func ApprovalNotification(r Report) Notification {
	return Notification{
		Level:    "success",
		Title:    "Report Approved",
		Message:  fmt.Sprintf("Report (%s) by %s has been approved.", r.Type, r.ReporterLabel()),
		ReportID: r.ID,
		SentAt:   Now(),
	}
}
