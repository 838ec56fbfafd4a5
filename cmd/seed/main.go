// Command seed loads the coastal mock incidents into the local report store
// so the map, hotspots and moderation views have data without a remote API.
// Incidents already present (by id) are skipped.
//
// Usage:
//
//	go run ./cmd/seed [-reset]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/oceaneye-service/internal/adapter/storage"
	"github.com/couchcryptid/oceaneye-service/internal/config"
	"github.com/couchcryptid/oceaneye-service/internal/domain"
	"github.com/couchcryptid/oceaneye-service/internal/observability"
	"github.com/couchcryptid/oceaneye-service/internal/report"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run() error {
	reset := flag.Bool("reset", false, "clear the store before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg)
	ctx := context.Background()

	dsn := cfg.SQLitePath
	if cfg.StoreDriver == config.DriverPostgres {
		dsn = cfg.PostgresDSN
	}
	kv, err := storage.OpenWithRetry(ctx, cfg.StoreDriver, dsn, cfg.StoreOpenAttempts, logger)
	if err != nil {
		return err
	}
	defer kv.Close()

	// Local only: seeded incidents are never mirrored to the remote API.
	var nextID string
	store := report.New(kv, nil, logger, observability.NewMetricsForTesting(),
		report.WithIDGenerator(func() string { return nextID }))
	defer store.Close()
	store.Load(ctx)

	if *reset {
		store.ClearAll(ctx)
	}

	added, err := seed(ctx, store, incidents, time.Now(), func(id string) { nextID = id })
	if err != nil {
		return err
	}
	logger.Info("seed complete", "added", added, "total", len(store.Reports()))
	return nil
}

// seed submits every incident not yet in store, oldest first so the store
// stays newest-first. setID fixes the id of the next submission.
func seed(ctx context.Context, store *report.Store, list []incident, now time.Time, setID func(string)) (int, error) {
	ordered := make([]incident, len(list))
	copy(ordered, list)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].age > ordered[j].age })

	defer domain.SetClock(nil)

	added := 0
	for _, in := range ordered {
		if _, err := store.Get(in.id); err == nil {
			continue
		} else if !errors.Is(err, report.ErrNotFound) {
			return added, err
		}

		domain.SetClock(clockwork.NewFakeClockAt(now.Add(-in.age)))
		setID(in.id)
		lat, lng := in.lat, in.lng
		r := store.Submit(ctx, domain.Draft{
			Type:         in.category,
			Description:  in.description,
			Location:     in.name,
			ReporterID:   "seed",
			ReporterName: in.reporter,
			Lat:          &lat,
			Lng:          &lng,
		})
		if _, err := store.UpdatePriority(ctx, r.ID, in.severity); err != nil {
			return added, fmt.Errorf("seed %s: %w", in.id, err)
		}
		if in.status != domain.StatusPending {
			if _, err := store.UpdateStatus(ctx, r.ID, in.status); err != nil {
				return added, fmt.Errorf("seed %s: %w", in.id, err)
			}
		}
		added++
	}
	return added, nil
}
