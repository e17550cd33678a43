package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/config"
	"github.com/dstroumpakos/escape-app-sub001/internal/repositories"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	connectAttempts = 5
	connectTimeout  = 5 * time.Second
	firstBackoff    = 500 * time.Millisecond
	migrateTimeout  = 30 * time.Second
)

// App owns the process-wide resources shared by repositories.
type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
}

// NewApp connects to Postgres and, when auto_migrate_schema is on, applies
// the ledger schema before any request can reach the pool.
func NewApp(cfg *config.Config) (*App, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("parse DB_URL: %w", err)
	}
	poolCfg.MaxConnIdleTime = 2 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = cfg.DBMaxConns
	}

	pool, err := connectWithBackoff(poolCfg)
	if err != nil {
		return nil, err
	}
	utils.Logger.WithField("max_conns", poolCfg.MaxConns).Infof("%s connected to ledger DB", cfg.AppName)

	if cfg.LDFlag_AutoMigrateSchema {
		ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
		defer cancel()
		if err := repositories.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		utils.Logger.Info("Ledger schema applied")
	}

	return &App{Config: cfg, DB: pool}, nil
}

// connectWithBackoff doubles the wait between attempts; the booking service
// usually starts alongside its database and loses the first few dials.
func connectWithBackoff(poolCfg *pgxpool.Config) (*pgxpool.Pool, error) {
	wait := firstBackoff
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		pool, err := pgxpool.ConnectConfig(ctx, poolCfg.Copy())
		cancel()
		if err == nil {
			return pool, nil
		}
		lastErr = err
		if attempt == connectAttempts {
			break
		}
		utils.Logger.WithError(err).Warnf("DB connect attempt %d/%d failed, next in %v", attempt, connectAttempts, wait)
		time.Sleep(wait)
		wait *= 2
	}
	return nil, fmt.Errorf("unable to connect after %d attempts: %w", connectAttempts, lastErr)
}

func (a *App) Close() {
	if a.DB == nil {
		return
	}
	a.DB.Close()
	utils.Logger.Infof("%s DB connection closed", a.Config.AppName)
}
