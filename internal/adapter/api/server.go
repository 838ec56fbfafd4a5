// Package api serves the OceanEye application API: reports, hazard feeds,
// hotspots, shelters, weather, accounts and the device session. Responses
// use the {ok, ...} envelope of the remote OceanEye backend so either can be
// used as the other's API base.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/oceaneye-service/internal/adapter/weather"
	"github.com/couchcryptid/oceaneye-service/internal/auth"
	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/feed"
	"github.com/couchcryptid/oceaneye-service/internal/observability"
	"github.com/couchcryptid/oceaneye-service/internal/report"
	"github.com/couchcryptid/oceaneye-service/internal/session"
)

// ReportStore is the report collection the API reads and mutates.
type ReportStore interface {
	Submit(ctx context.Context, d domain.Draft) domain.Report
	UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Report, error)
	UpdatePriority(ctx context.Context, id string, priority domain.Priority) (domain.Report, error)
	ClearAll(ctx context.Context)
	Reports() []domain.Report
}

// LiveReports exposes the latest polled view of the remote report list.
type LiveReports interface {
	Snapshot() report.LiveSnapshot
}

// Feed is an aggregated hazard feed.
type Feed interface {
	Snapshot() feed.Snapshot
	Items() []domain.FeedItem
	Nearby(center domain.Geo, radiusKm float64) []domain.FeedItem
}

// Accounts signs users up and in.
type Accounts interface {
	Signup(ctx context.Context, in auth.SignupInput) (auth.Result, error)
	Login(ctx context.Context, identifier, password string) (auth.Result, error)
}

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Session is the device session.
type Session interface {
	State(ctx context.Context) session.State
	SetPreferences(ctx context.Context, u session.PreferencesUpdate) (session.Preferences, error)
	ClearUser(ctx context.Context) error
}

// WeatherProvider reports conditions at a point.
type WeatherProvider interface {
	Current(ctx context.Context, pos domain.Geo) (weather.Conditions, error)
}

// Deps are the components behind the routes. Geocoder and Live may be nil.
type Deps struct {
	Reports   ReportStore
	Live      LiveReports
	Alerts    Feed // NWS coastal alerts used as social signals
	Disasters Feed // merged disaster feed
	Accounts  Accounts
	Tokens    TokenParser
	Session   Session
	Weather   WeatherProvider
	Geocoder  domain.Geocoder
	Shelters  []domain.Shelter

	HotspotMarkerCap int
	HotspotKeywords  []string

	// GeocodeTimeout bounds geocoding during a submission; zero uses
	// DefaultGeocodeTimeout.
	GeocodeTimeout time.Duration
}

// DefaultGeocodeTimeout bounds submit-time geocoding when Deps sets none.
const DefaultGeocodeTimeout = 2 * time.Second

// Server is the application API HTTP server.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer builds the gin router and wraps it in an http.Server.
func NewServer(addr string, deps Deps, logger *slog.Logger, metrics *observability.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	if deps.Shelters == nil {
		deps.Shelters = domain.CoastalShelters()
	}
	if deps.GeocodeTimeout <= 0 {
		deps.GeocodeTimeout = DefaultGeocodeTimeout
	}

	s := &Server{deps: deps, logger: logger, metrics: metrics}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), cors(), requestLogger(s.logger))

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", s.handleSignup)
	authGroup.POST("/login", s.handleLogin)
	authGroup.POST("/logout", s.handleLogout)

	secured := api.Group("", bearer(s.deps.Tokens))

	reports := secured.Group("/reports")
	reports.GET("", s.handleListReports)
	reports.POST("", s.handleSubmitReport)
	reports.GET("/live", s.handleLiveReports)
	reports.GET("/links", s.handleReportLinks)

	moderate := requirePermission(domain.PermModerateIncidents)
	reports.PATCH("/:id/status", moderate, s.handleUpdateStatus)
	reports.PATCH("/:id/priority", moderate, s.handleUpdatePriority)
	reports.DELETE("", moderate, s.handleClearReports)

	secured.GET("/hotspots", s.handleHotspots)
	secured.GET("/alerts", s.handleAlerts)
	secured.GET("/alerts/nearby", s.handleNearbyAlerts)
	secured.GET("/shelters/nearest", s.handleNearestShelters)
	secured.GET("/weather", s.handleWeather)

	secured.GET("/session", s.handleSession)
	secured.PUT("/session/preferences", s.handleSetPreferences)

	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("api server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": "healthy"})
}
