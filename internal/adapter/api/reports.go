package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/geo"
	"github.com/couchcryptid/oceaneye-service/internal/report"
)

const defaultLinkNeighbours = 2

// handleListReports handles GET /api/reports?status=&q=.
func (s *Server) handleListReports(c *gin.Context) {
	status := domain.Status(strings.ToLower(c.Query("status")))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown status " + string(status)})
		return
	}
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))

	items := make([]domain.Report, 0)
	for _, r := range s.deps.Reports.Reports() {
		if status != "" && r.Status != status {
			continue
		}
		if q != "" && !matchesQuery(r, q) {
			continue
		}
		items = append(items, r)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

func matchesQuery(r domain.Report, q string) bool {
	for _, field := range []string{r.Type, r.Description, r.Location, r.ReporterName} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// handleSubmitReport handles POST /api/reports. An authenticated caller is
// recorded as the reporter; anonymous reports use the device reporter id.
func (s *Server) handleSubmitReport(c *gin.Context) {
	var d domain.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid report body"})
		return
	}
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		respondValidation(c, err)
		return
	}

	if claims, ok := claimsFrom(c); ok {
		d.ReporterID = claims.Subject
		if d.ReporterName == "" {
			d.ReporterName = claims.Name
		}
	}
	d = s.resolveLocation(c.Request.Context(), d)

	r := s.deps.Reports.Submit(c.Request.Context(), d)
	c.JSON(http.StatusCreated, gin.H{"ok": true, "item": r})
}

// resolveLocation geocodes the missing half of a draft's position within
// the geocode deadline. A slow provider leaves the draft as submitted.
func (s *Server) resolveLocation(ctx context.Context, d domain.Draft) domain.Draft {
	if s.deps.Geocoder == nil {
		return d
	}
	ctx, cancel := context.WithTimeout(ctx, s.deps.GeocodeTimeout)
	defer cancel()
	return domain.ResolveDraftLocation(ctx, d, s.deps.Geocoder, s.logger)
}

type statusBody struct {
	Status domain.Status `json:"status"`
}

type priorityBody struct {
	Priority domain.Priority `json:"priority"`
}

// handleUpdateStatus handles PATCH /api/reports/:id/status.
func (s *Server) handleUpdateStatus(c *gin.Context) {
	var body statusBody
	if err := c.ShouldBindJSON(&body); err != nil || !body.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "status must be pending, approved or rejected"})
		return
	}
	r, err := s.deps.Reports.UpdateStatus(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": r})
}

// handleUpdatePriority handles PATCH /api/reports/:id/priority.
func (s *Server) handleUpdatePriority(c *gin.Context) {
	var body priorityBody
	if err := c.ShouldBindJSON(&body); err != nil || !body.Priority.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "priority must be low, medium, high or critical"})
		return
	}
	r, err := s.deps.Reports.UpdatePriority(c.Request.Context(), c.Param("id"), body.Priority)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": r, "color": domain.SeverityColor(r.Priority)})
}

// handleClearReports handles DELETE /api/reports.
func (s *Server) handleClearReports(c *gin.Context) {
	s.deps.Reports.ClearAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleLiveReports handles GET /api/reports/live. Without a poller the
// local store is served.
func (s *Server) handleLiveReports(c *gin.Context) {
	if s.deps.Live == nil {
		c.JSON(http.StatusOK, gin.H{
			"ok":     true,
			"items":  s.deps.Reports.Reports(),
			"source": report.SourceLocal,
		})
		return
	}
	snap := s.deps.Live.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"items":      snap.Reports,
		"source":     snap.Source,
		"updated_at": snap.UpdatedAt,
	})
}

type linkNode struct {
	ReportID string     `json:"report_id"`
	Position domain.Geo `json:"position"`
}

// handleReportLinks handles GET /api/reports/links?k=. Nodes are the
// located reports, newest first.
func (s *Server) handleReportLinks(c *gin.Context) {
	k, err := intQuery(c, "k", defaultLinkNeighbours)
	if err != nil || k < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "k must be a positive integer"})
		return
	}

	var nodes []linkNode
	var positions []domain.Geo
	for _, r := range s.deps.Reports.Reports() {
		pos, ok := r.Coordinates()
		if !ok {
			continue
		}
		if len(nodes) == geo.MaxLinkNodes {
			break
		}
		nodes = append(nodes, linkNode{ReportID: r.ID, Position: pos})
		positions = append(positions, pos)
	}

	links := geo.NearestLinks(positions, k)
	if nodes == nil {
		nodes = []linkNode{}
	}
	if links == nil {
		links = []geo.Link{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "nodes": nodes, "links": links})
}

func respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, report.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "report not found"})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
}

func respondValidation(c *gin.Context, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": verr.Message, "field": verr.Field})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
}
