// Package app boots the group collaboration API server.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/caregrid/caregrid/internal/config"
	"github.com/caregrid/caregrid/internal/db"
	"github.com/caregrid/caregrid/internal/groups"
	"github.com/caregrid/caregrid/internal/http/api"
	"github.com/caregrid/caregrid/internal/ratelimit"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// invitationRetention keeps expired, never-resolved invitations queryable
// for a grace period before pruning removes them.
const invitationRetention = 30 * 24 * time.Hour

// pruneInterval is how often the background prune runs.
const pruneInterval = time.Hour

// shutdownTimeout bounds graceful drain on exit.
const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the API server and blocks until the context is canceled
// or the listener fails.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtCfg, errJWT := config.LoadJWTConfig(configPath)
	if errJWT != nil {
		return errJWT
	}

	limiter := ratelimit.BuildLimiter(ratelimit.LoadSettingsConfig(conn))
	svc := groups.NewService(conn, groups.WithInviteTTL(config.LoadInviteTTL(configPath)))

	if _, errPrune := svc.PruneExpiredInvitations(ctx, invitationRetention); errPrune != nil {
		log.WithError(errPrune).Warn("initial invitation prune failed")
	}
	go pruneLoop(ctx, svc)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	api.RegisterRoutes(engine, conn, svc, jwtCfg, limiter)

	addr := config.LoadListenAddr(configPath)
	server := &http.Server{Addr: addr, Handler: engine}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			log.WithError(errShutdown).Warn("server shutdown")
		}
	}()

	log.Infof("starting server on %s with config=%s", addr, configPath)
	if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
		return errServe
	}
	return nil
}

// pruneLoop periodically removes long-expired invitations.
func pruneLoop(ctx context.Context, svc *groups.Service) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, errPrune := svc.PruneExpiredInvitations(ctx, invitationRetention); errPrune != nil {
				log.WithError(errPrune).Warn("invitation prune failed")
			}
		}
	}
}
