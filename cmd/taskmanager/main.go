// Command taskmanager serves the to-do web application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/nhle/taskweb/internal/auth"
	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/service"
	"github.com/nhle/taskweb/internal/session"
	"github.com/nhle/taskweb/internal/store"
	"github.com/nhle/taskweb/internal/tracing"
	"github.com/nhle/taskweb/internal/web"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "taskmanager: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("taskmanager", pflag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to the YAML config file")
	fs.String("addr", "", "listen address (overrides server.addr)")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v := model.NewViper()
	if fs.Changed("addr") {
		if err := v.BindPFlag("server.addr", fs.Lookup("addr")); err != nil {
			return err
		}
	}
	if *debug {
		v.Set("log.level", "debug")
	}
	cfg, err := model.LoadConfigFrom(v, *configPath)
	if err != nil {
		return err
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}

	shutdownTracing, err := tracing.Setup(cfg.Tracing, logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.WithError(err).Warn("tracing.shutdown.failed")
		}
	}()

	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	authSvc, err := auth.NewService(db, logger)
	if err != nil {
		return err
	}

	sessions, closeSessions, err := newSessionStore(cfg.Session, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	server, err := web.New(web.Deps{
		Tasks: service.NewTaskService(db, logger),
		Auth:  authSvc,
		Sessions: session.NewManager(sessions, session.Config{
			CookieName: cfg.Session.CookieName,
			MaxAge:     cfg.Session.CookieAge(),
			Secure:     cfg.Server.SecureCookies,
		}, logger),
		DB:            db,
		Logger:        logger,
		SecureCookies: cfg.Server.SecureCookies,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(log.Fields{
			"addr":   cfg.Server.Addr,
			"driver": cfg.Database.Driver,
		}).Info("server.listening")
		errCh <- server.Start(cfg.Server.Addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.WithField("signal", sig.String()).Info("server.shutdown")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info("server.stopped")
	return nil
}

func newSessionStore(cfg model.SessionConfig, logger *log.Logger) (session.Store, func(), error) {
	if cfg.Backend != model.SessionBackendRedis {
		mem := session.NewMemoryStore()
		janitor := session.NewJanitor(mem, cfg.SweepInterval, logger)
		janitor.Start()
		return mem, janitor.Stop, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("session.redis_url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return session.NewRedisStore(client), func() { client.Close() }, nil
}
