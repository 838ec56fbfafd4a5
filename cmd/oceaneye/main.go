package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/oceaneye-service/internal/adapter/api"
	opshttp "github.com/couchcryptid/oceaneye-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/oceaneye-service/internal/adapter/kafka"
	"github.com/couchcryptid/oceaneye-service/internal/adapter/mapbox"
	"github.com/couchcryptid/oceaneye-service/internal/adapter/nws"
	"github.com/couchcryptid/oceaneye-service/internal/adapter/rediscache"
	"github.com/couchcryptid/oceaneye-service/internal/adapter/remote"
	"github.com/couchcryptid/oceaneye-service/internal/adapter/storage"
	"github.com/couchcryptid/oceaneye-service/internal/adapter/tsunami"
	"github.com/couchcryptid/oceaneye-service/internal/adapter/weather"
	"github.com/couchcryptid/oceaneye-service/internal/auth"
	"github.com/couchcryptid/oceaneye-service/internal/config"
	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/feed"
	"github.com/couchcryptid/oceaneye-service/internal/hotspot"
	"github.com/couchcryptid/oceaneye-service/internal/observability"
	"github.com/couchcryptid/oceaneye-service/internal/report"
	"github.com/couchcryptid/oceaneye-service/internal/schedule"
	"github.com/couchcryptid/oceaneye-service/internal/session"
)

const (
	disasterFeedLimit = 12
	feedHTTPTimeout   = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := cfg.SQLitePath
	if cfg.StoreDriver == config.DriverPostgres {
		dsn = cfg.PostgresDSN
	}
	kv, err := storage.OpenWithRetry(ctx, cfg.StoreDriver, dsn, cfg.StoreOpenAttempts, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer kv.Close()

	sess, err := session.Open(ctx, kv, cfg.RemoteAPIBase, logger)
	if err != nil {
		logger.Error("failed to open session", "error", err)
		os.Exit(1)
	}
	defer sess.Close()

	// The session override is read on every request.
	remoteClient := remote.NewClient(sess.APIBase, nil, logger)

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	notifiers := report.Notifiers{report.NewLogNotifier(logger)}
	storeOpts := []report.Option{
		report.WithIdentity(sess),
		report.WithTimeouts(report.Timeouts{
			Health: cfg.RemoteHealthTimeout,
			Load:   cfg.RemoteLoadTimeout,
			Write:  cfg.RemoteWriteTimeout,
		}),
	}
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		notifiers = append(notifiers, publisher)
		storeOpts = append(storeOpts, report.WithEventSink(publisher))
		logger.Info("kafka report events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportsTopic)
	}
	storeOpts = append(storeOpts, report.WithNotifier(notifiers))

	store := report.New(kv, remoteClient, logger, metrics, storeOpts...)
	store.Load(ctx)
	poller := report.NewPoller(remoteClient, store, cfg.RemoteLoadTimeout, logger, metrics)

	accounts := auth.NewService(
		remoteClient,
		auth.NewRegistry(kv, 0),
		sess,
		auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL, nil),
		auth.Timeouts{Health: cfg.RemoteHealthTimeout, Request: cfg.AuthTimeout},
		logger,
		metrics,
	)

	alerts, disasters, cache := buildFeeds(cfg, logger, metrics)
	if cache != nil {
		defer cache.Close()
	}

	scheduler := schedule.New(logger)
	tasks := []struct {
		name     string
		interval time.Duration
		task     schedule.Task
	}{
		{"alerts", cfg.AlertRefreshInterval, func(ctx context.Context) { alerts.Refresh(ctx) }},
		{"disasters", cfg.DisasterRefreshInterval, func(ctx context.Context) { disasters.Refresh(ctx) }},
		{"live-reports", cfg.LiveReportsInterval, func(ctx context.Context) { poller.Refresh(ctx) }},
	}
	for _, t := range tasks {
		if _, err := scheduler.Every(t.name, t.interval, t.task); err != nil {
			logger.Error("failed to schedule task", "task", t.name, "error", err)
			os.Exit(1)
		}
	}
	scheduler.Start()

	apiSrv := api.NewServer(cfg.APIAddr, api.Deps{
		Reports:          store,
		Live:             poller,
		Alerts:           alerts,
		Disasters:        disasters,
		Accounts:         accounts,
		Tokens:           accounts.Tokens(),
		Session:          sess,
		Weather:          weather.NewClient(cfg.WeatherBaseURL, feedHTTPTimeout, logger),
		Geocoder:         geocoder,
		HotspotMarkerCap: cfg.HotspotMarkerCap,
		HotspotKeywords:  hotspot.ParseKeywords(cfg.HotspotKeywords),
		GeocodeTimeout:   cfg.SubmitGeocodeTimeout,
	}, logger, metrics)

	checks := []opshttp.Check{
		{Name: "store", Checker: store},
		{Name: cfg.StoreDriver, Checker: kv},
		{Name: "alerts", Checker: alerts},
		{Name: "disasters", Checker: disasters},
	}
	if cache != nil {
		checks = append(checks, opshttp.Check{Name: "redis", Checker: cache})
	}
	opsSrv := opshttp.NewServer(cfg.HTTPAddr, logger, checks...)

	for _, srv := range []interface{ Start() error }{opsSrv, apiSrv} {
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown error", "error", err)
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}
	poller.Stop()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown error", "error", err)
	}
	store.Close()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// buildFeeds creates the NWS-only alerts feed used for hotspot signals and
// the merged disaster feed. Both share the Redis snapshot cache when
// REDIS_ADDR is set.
func buildFeeds(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (alerts, disasters *feed.Aggregator, cache *rediscache.FeedCache) {
	httpClient := &http.Client{Timeout: feedHTTPTimeout}

	var nwsSources []feed.Source
	for _, src := range nws.CoastalSources(cfg.NWSBaseURL, cfg.NWSUserAgent, httpClient, logger) {
		nwsSources = append(nwsSources, src)
	}
	disasterSources := append([]feed.Source{tsunami.NewSource(cfg.TsunamiFeedURL, httpClient, logger)}, nwsSources...)

	var opts []feed.Option
	if client := rediscache.Open(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); client != nil {
		cache = rediscache.NewFeedCache(client, cfg.FeedCacheTTL, logger)
		opts = append(opts, feed.WithCache(cache))
		logger.Info("redis feed cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.FeedCacheTTL)
	}

	alerts = feed.New("alerts", nwsSources, logger, metrics, opts...)
	disasters = feed.New("disasters", disasterSources, logger, metrics, append(opts, feed.WithLimit(disasterFeedLimit))...)
	return alerts, disasters, cache
}
