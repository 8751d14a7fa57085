package cli

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/julianstephens/habitkeeper/internal/cloud"
	"github.com/julianstephens/habitkeeper/internal/config"
	"github.com/julianstephens/habitkeeper/internal/identity"
	"github.com/julianstephens/habitkeeper/internal/logger"
	"github.com/julianstephens/habitkeeper/internal/storage"
	"github.com/julianstephens/habitkeeper/internal/storage/firestore"
	"github.com/julianstephens/habitkeeper/internal/storage/memory"
	"github.com/julianstephens/habitkeeper/internal/storage/postgres"
	"github.com/julianstephens/habitkeeper/internal/storage/sqlite"
	"github.com/julianstephens/habitkeeper/internal/tracker"
)

// OpenStore builds the configured backend. The store is not loaded yet; the
// caller runs Init or Load. The firebase app is returned for the firestore
// backend so login can reuse it.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Provider, *firebase.App, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.New(), nil, nil
	case config.StorePostgres:
		dsn, err := cfg.ResolveDSN()
		if err != nil {
			return nil, nil, err
		}
		return postgres.New(dsn), nil, nil
	case config.StoreFirestore:
		app, err := cloud.NewApp(ctx, cfg.Firebase())
		if err != nil {
			return nil, nil, err
		}
		s := firestore.New(app)
		s.SetWriteRate(cfg.FirestoreWriteHz)
		return s, app, nil
	case config.StoreSQLite, "":
		return sqlite.NewStore(cfg.DB), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// NewContext wires the store, metrics, identity chain and tracker for cfg.
func NewContext(ctx context.Context, cfg *config.Config) (*Context, error) {
	cfg.Normalize()
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, app, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := storage.NewMetrics(reg)
	store = storage.Instrument(store, metrics)
	logger.Debug("Opened store", "backend", store.Name())

	return &Context{
		Config:   cfg,
		Store:    store,
		Tracker:  tracker.New(store, tracker.WithLocation(loc), tracker.WithMetrics(metrics)),
		Identity: identity.NewResolver(identity.Static(cfg.UID), identity.Keyring{}),
		Registry: reg,
		Metrics:  metrics,
		app:      app,
	}, nil
}
