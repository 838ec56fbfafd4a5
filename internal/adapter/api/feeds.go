package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/geo"
	"github.com/couchcryptid/oceaneye-service/internal/hotspot"
)

const (
	defaultAlertRadiusKm   = 250
	defaultShelterRadiusKm = 10
	defaultShelterLimit    = 5
)

var errPositionRequired = errors.New("lat and lng are required")

// handleHotspots handles
// GET /api/hotspots?zoom&lat&lng&mode&keywords&reports&social.
func (s *Server) handleHotspots(c *gin.Context) {
	zoom, err := floatQuery(c, "zoom", hotspot.DefaultZoom)
	if err != nil {
		badRequest(c, err)
		return
	}
	zoom = hotspot.ClampZoom(zoom)
	center, err := positionQuery(c, &hotspot.DefaultCenter)
	if err != nil {
		badRequest(c, err)
		return
	}
	mode, err := hotspot.ParseMode(c.Query("mode"))
	if err != nil {
		badRequest(c, err)
		return
	}
	includeReports, err := boolQuery(c, "reports", true)
	if err != nil {
		badRequest(c, err)
		return
	}
	includeSocial, err := boolQuery(c, "social", true)
	if err != nil {
		badRequest(c, err)
		return
	}

	keywords := s.deps.HotspotKeywords
	if raw, ok := c.GetQuery("keywords"); ok {
		keywords = hotspot.ParseKeywords(raw)
	}

	var alerts []domain.FeedItem
	if s.deps.Alerts != nil {
		alerts = s.deps.Alerts.Items()
	}

	res := hotspot.Compute(s.deps.Reports.Reports(), alerts, hotspot.Request{
		Zoom:   zoom,
		Center: center,
		Options: hotspot.Options{
			Mode:           mode,
			Keywords:       keywords,
			ExcludeReports: !includeReports,
			ExcludeSocial:  !includeSocial,
		},
		MarkerCap: s.deps.HotspotMarkerCap,
	})

	s.metrics.HotspotComputations.Inc()
	s.metrics.HotspotCells.Observe(float64(len(res.Hotspots)))
	s.metrics.HotspotMarkers.Observe(float64(len(res.Markers)))

	c.JSON(http.StatusOK, gin.H{"ok": true, "result": res})
}

// handleAlerts handles GET /api/alerts.
func (s *Server) handleAlerts(c *gin.Context) {
	if s.deps.Disasters == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true, "items": []domain.FeedItem{}, "errors": gin.H{}})
		return
	}
	snap := s.deps.Disasters.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"items":      snap.Items,
		"errors":     snap.Errors,
		"updated_at": snap.UpdatedAt,
		"cached":     snap.Cached,
	})
}

// handleNearbyAlerts handles GET /api/alerts/nearby?lat&lng&radiusKm.
func (s *Server) handleNearbyAlerts(c *gin.Context) {
	center, err := positionQuery(c, nil)
	if err != nil {
		badRequest(c, err)
		return
	}
	radius, err := floatQuery(c, "radiusKm", defaultAlertRadiusKm)
	if err != nil || radius <= 0 {
		badRequest(c, errors.New("radiusKm must be a positive number"))
		return
	}

	items := []domain.FeedItem{}
	if s.deps.Disasters != nil {
		if near := s.deps.Disasters.Nearby(center, radius); near != nil {
			items = near
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items, "radius_km": radius})
}

type shelterResult struct {
	domain.Shelter
	DistanceKm float64 `json:"distance_km"`
	NearlyFull bool    `json:"nearly_full"`
}

// handleNearestShelters handles
// GET /api/shelters/nearest?lat&lng&radiusKm&limit.
func (s *Server) handleNearestShelters(c *gin.Context) {
	center, err := positionQuery(c, nil)
	if err != nil {
		badRequest(c, err)
		return
	}
	radius, err := floatQuery(c, "radiusKm", defaultShelterRadiusKm)
	if err != nil || radius <= 0 {
		badRequest(c, errors.New("radiusKm must be a positive number"))
		return
	}
	limit, err := intQuery(c, "limit", defaultShelterLimit)
	if err != nil || limit < 1 {
		badRequest(c, errors.New("limit must be a positive integer"))
		return
	}

	ranked := geo.WithinRadius(s.deps.Shelters, center, radius, limit, func(sh domain.Shelter) domain.Geo {
		return sh.Position
	})
	items := make([]shelterResult, len(ranked))
	for i, r := range ranked {
		items[i] = shelterResult{Shelter: r.Item, DistanceKm: r.DistanceKm, NearlyFull: r.Item.NearlyFull()}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

// handleWeather handles GET /api/weather?lat&lng.
func (s *Server) handleWeather(c *gin.Context) {
	pos, err := positionQuery(c, nil)
	if err != nil {
		badRequest(c, err)
		return
	}
	if s.deps.Weather == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "weather is not configured"})
		return
	}
	cond, err := s.deps.Weather.Current(c.Request.Context(), pos)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "weather provider unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "weather": cond})
}

// positionQuery reads lat and lng. When both are absent def is used; a nil
// def makes them required.
func positionQuery(c *gin.Context, def *domain.Geo) (domain.Geo, error) {
	latRaw, hasLat := c.GetQuery("lat")
	lngRaw, hasLng := c.GetQuery("lng")
	if !hasLat && !hasLng {
		if def == nil {
			return domain.Geo{}, errPositionRequired
		}
		return *def, nil
	}
	if !hasLat || !hasLng {
		return domain.Geo{}, errPositionRequired
	}
	lat, err := parseFinite(latRaw)
	if err != nil || lat < -90 || lat > 90 {
		return domain.Geo{}, fmt.Errorf("invalid lat %q", latRaw)
	}
	lng, err := parseFinite(lngRaw)
	if err != nil || lng < -180 || lng > 180 {
		return domain.Geo{}, fmt.Errorf("invalid lng %q", lngRaw)
	}
	return domain.Geo{Lat: lat, Lng: lng}, nil
}

func floatQuery(c *gin.Context, key string, def float64) (float64, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := parseFinite(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

// parseFinite parses a float and rejects NaN and infinities.
func parseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}
	return v, nil
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func boolQuery(c *gin.Context, key string, def bool) (bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
}
