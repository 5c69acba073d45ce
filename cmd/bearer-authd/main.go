package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"golang.org/x/sync/errgroup"

	auth "github.com/goliatone/go-bearer-auth"
	"github.com/goliatone/go-bearer-auth/internal/persistence"
)

func main() {
	cfg, err := auth.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func run(ctx context.Context, cfg *auth.EnvConfig) error {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := auth.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if cfg.Debug {
		logger.Debug("configuration", "config", print.MaybePrettyJSON(cfg.Sanitized()))
	}

	db, err := persistence.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	migrations, err := auth.GetMigrationsFS(persistence.MigrationsDialect(cfg.DBDriver))
	if err != nil {
		return err
	}
	if err := persistence.Migrate(ctx, db, cfg.DBDriver, migrations); err != nil {
		return err
	}

	svc, err := auth.NewServiceFromConfig(cfg, auth.NewUserStore(db), auth.WithLogger(logger))
	if err != nil {
		return err
	}
	defer svc.Close()

	app := fiber.New(fiber.Config{
		AppName:               "bearer-authd",
		DisableStartupMessage: !cfg.Debug,
	})

	controller := auth.NewHTTPController(svc,
		auth.WithControllerLogger(logger),
		auth.WithControllerDebug(cfg.Debug),
	)
	controller.RegisterRoutes(app.Group("/api/auth"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		return app.Listen(cfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	return g.Wait()
}
