package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/yellowsub/apps/web/echo"
	"github.com/trezcool/yellowsub/core"
	"github.com/trezcool/yellowsub/core/feedback"
	"github.com/trezcool/yellowsub/core/profile"
	"github.com/trezcool/yellowsub/core/session"
	"github.com/trezcool/yellowsub/services/email"
	"github.com/trezcool/yellowsub/services/logger"
	"github.com/trezcool/yellowsub/storage/database"
	"github.com/trezcool/yellowsub/storage/database/sqlx"
)

const sessionPurgeInterval = time.Hour

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger, err := newLogger("WEB", conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	defer logger.Sync()

	dbLogger, err := newLogger("DB", conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	defer dbLogger.Sync()

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	mailSvc, err := emailsvc.New(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up email service: %v", err), err)
	}
	profileSvc := profile.NewService(sqlxrepos.NewProfileRepository(db))
	feedbackSvc := feedback.NewService(mailSvc, conf)
	sessions := sqlxrepos.NewSessionStore(db)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := core.NewValidator()
	core.ParseEmailTemplates(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Purge expired sessions

	purgeCtx, stopPurge := context.WithCancel(context.Background())
	defer stopPurge()
	go purgeSessions(purgeCtx, sessions, dbLogger)

	// =========================================================================
	// Start Web Service

	server, err := echoweb.NewServer(
		echoweb.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			ProfileSvc:  profileSvc,
			FeedbackSvc: feedbackSvc,
			Sessions:    sessions,
			DB:          db,
			Validate:    validate,
		},
	)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up server: %v", err), err)
	}

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newLogger(name string, conf *core.Config) (*logsvc.RollbarLogger, error) {
	std, err := logsvc.NewZapLogger(name, conf)
	if err != nil {
		return nil, err
	}
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)
	return logger, nil
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db, conf.Database.Engine); err != nil {
		return nil, err
	}
	return db, nil
}

// purgeSessions deletes expired sessions every sessionPurgeInterval until ctx is done.
func purgeSessions(ctx context.Context, store session.Store, logger core.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpired(ctx)
			if err != nil {
				logger.Error("purging expired sessions", err)
				continue
			}
			logger.Debug(fmt.Sprintf("purged %d expired sessions", n))
		}
	}
}
