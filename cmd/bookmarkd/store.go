package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookmarkd/internal/config"
	dbRedis "github.com/kailas-cloud/bookmarkd/internal/db/redis"
	"github.com/kailas-cloud/bookmarkd/internal/db/sqldb"
	bookmarkrepo "github.com/kailas-cloud/bookmarkd/internal/repository/bookmark"
	bookmarkuc "github.com/kailas-cloud/bookmarkd/internal/usecase/bookmark"
	healthuc "github.com/kailas-cloud/bookmarkd/internal/usecase/health"
	searchuc "github.com/kailas-cloud/bookmarkd/internal/usecase/search"
)

// bookmarkRepo is everything the use cases need from a backend.
type bookmarkRepo interface {
	bookmarkuc.Repository
	searchuc.Repository
}

// store is the selected backend. kv is set only for redis/valkey so the
// embedding cache can share the connection.
type store struct {
	repo   bookmarkRepo
	pinger healthuc.DBPinger
	kv     *dbRedis.Store
	close  func()
}

// openStore selects the backend by database.driver and waits until it answers.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store, error) {
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second

	switch cfg.Database.Driver {
	case config.DriverPostgres, config.DriverSQLite:
		pc := cfg.Database.Pool
		d, err := sqldb.Open(sqldb.Config{
			Dialect: sqldb.Dialect(cfg.Database.Driver),
			DSN:     cfg.Database.DSN,
			Pool: sqldb.PoolConfig{
				Enabled:         pc.IsEnabled(),
				MaxOpenConns:    pc.MaxOpenConns,
				MaxIdleConns:    pc.MaxIdleConns,
				ConnMaxLifetime: time.Duration(pc.ConnMaxLifetimeSec) * time.Second,
				ConnMaxIdleTime: time.Duration(pc.ConnMaxIdleTimeSec) * time.Second,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Database.Driver, err)
		}
		if err := d.WaitForReady(ctx, readiness); err != nil {
			d.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		if err := d.InitSchema(ctx); err != nil {
			d.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
		logger.Info("SQL store ready", zap.Bool("pooled", pc.IsEnabled()))
		return &store{repo: bookmarkrepo.NewSQLRepo(d), pinger: d, close: d.Close}, nil

	case config.DriverRedis, config.DriverValkey:
		kv, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Database.Addrs,
			Password:   cfg.Database.Password,
			ClientName: "bookmarkd",
		})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Database.Driver, err)
		}
		if err := kv.WaitForReady(ctx, readiness); err != nil {
			kv.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		return &store{repo: bookmarkrepo.NewHashRepo(kv), pinger: kv, kv: kv, close: kv.Close}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
