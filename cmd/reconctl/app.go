package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/territoryops/recon/pkg/clash"
	"github.com/territoryops/recon/pkg/config"
	"github.com/territoryops/recon/pkg/db"
	"github.com/territoryops/recon/pkg/lock"
	"github.com/territoryops/recon/pkg/logging"
	"github.com/territoryops/recon/pkg/server/store"
	gormstore "github.com/territoryops/recon/pkg/server/store/gorm"
	"github.com/territoryops/recon/pkg/server/store/memstore"
)

// appOptions selects the backing store and the log destination.
type appOptions struct {
	// Fixture is a JSON snapshot to run against instead of the database.
	Fixture   string
	LogOutput io.Writer
}

// app holds the dependencies shared by the server and the clashes commands.
type app struct {
	cfg         *config.ReconConfig
	logger      *logrus.Logger
	service     *clash.Service
	health      store.HealthStore
	resolutions store.ResolutionsStore

	fixture     *memstore.Store
	fixturePath string
	closers     []func() error
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: opts.LogOutput,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	var (
		builds   store.BuildsStore
		accounts store.AccountsStore
	)
	if opts.Fixture != "" {
		mem, err := loadFixture(opts.Fixture)
		if err != nil {
			return nil, err
		}
		a.fixture = mem
		a.fixturePath = opts.Fixture
		builds, accounts, a.resolutions, a.health = mem, mem, mem, mem
	} else {
		database, err := db.Connect(db.Config{LogLevel: cfg.LogLevel, Logger: logger})
		if err != nil {
			return nil, err
		}
		if sqlDB, err := database.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		builds = gormstore.NewBuildsStore(database)
		accounts = gormstore.NewAccountsStore(database)
		a.resolutions = gormstore.NewResolutionsStore(database)
		a.health = gormstore.NewHealthStore(database)
	}

	locker, err := a.newLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	entry := logrus.NewEntry(logger)
	a.service = clash.NewService(
		clash.NewCollector(builds, accounts,
			clash.WithGlobalRoles(cfg.GlobalRoles),
			clash.WithConcurrency(cfg.FetchConcurrency),
			clash.WithCollectorLogger(entry.WithField("component", "collector")),
		),
		clash.NewResolver(accounts, a.resolutions,
			clash.WithLocker(locker, cfg.LockTTL()),
			clash.WithResolverLogger(entry.WithField("component", "resolver")),
		),
		a.resolutions,
		entry.WithField("component", "clashes"),
	)
	return a, nil
}

// newLocker returns a Redis lock when redis_address is configured and an
// in-process lock otherwise.
func (a *app) newLocker(ctx context.Context) (clash.Locker, error) {
	if a.cfg.RedisAddress == "" {
		return lock.NewLocal(), nil
	}
	client, err := lock.Connect(ctx, a.cfg.RedisAddress)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	a.logger.WithField("redis_address", a.cfg.RedisAddress).Debug("using redis resolution lock")
	return lock.NewRedis(client, "recon:"), nil
}

// SaveFixture writes the in-memory state back to the fixture file. It is a
// no-op when the app runs against the database.
func (a *app) SaveFixture() error {
	if a.fixture == nil {
		return nil
	}
	data, err := json.MarshalIndent(a.fixture.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(a.fixturePath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write fixture %s: %w", a.fixturePath, err)
	}
	return nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.WithError(err).Warn("failed to close resource")
		}
	}
	a.closers = nil
}

func loadFixture(path string) (*memstore.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer func() { _ = f.Close() }()

	mem, err := memstore.Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixture %s: %w", path, err)
	}
	return mem, nil
}
