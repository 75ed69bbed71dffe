package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/config"
	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/logging"
	"github.com/AlexTLDR/lesezirkel/internal/notify"
	"github.com/AlexTLDR/lesezirkel/internal/server"
	"github.com/AlexTLDR/lesezirkel/internal/storage"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	pflag.Parse()

	// A missing .env is fine, the environment may be set by the host.
	envErr := godotenv.Load(*envFile)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Environment, cfg.LogLevel)
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn().Err(envErr).Str("file", *envFile).Msg("could not load env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *migrateOnly); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, migrateOnly bool) (err error) {
	db, err := database.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	if migrateOnly {
		logger.Info().Msg("migrations applied")
		return nil
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(cfg, db, store, notifier, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Str("environment", cfg.Environment).Msg("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newStore(cfg *config.Config) (storage.Store, error) {
	if cfg.CloudinaryURL != "" {
		store, err := storage.NewCloudinary(cfg.CloudinaryURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
		}
		return store, nil
	}
	store, err := storage.NewLocal(cfg.MediaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare media directory: %w", err)
	}
	return store, nil
}

// newNotifier combines mail and Discord delivery as configured.
func newNotifier(cfg *config.Config, logger zerolog.Logger) (notify.Notifier, error) {
	var notifiers []notify.Notifier

	if cfg.MailEnabled() {
		notifiers = append(notifiers, notify.NewMailer(notify.MailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			Staff:    cfg.StaffEmail,
			SiteName: cfg.SiteName,
			Location: cfg.Location,
		}))
	} else {
		logger.Info().Msg("SMTP not configured, mail notifications disabled")
	}

	if cfg.DiscordBotToken != "" && cfg.DiscordChannelID != "" {
		session, err := notify.NewDiscordSession(cfg.DiscordBotToken)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, notify.NewDiscordNotifier(session, cfg.DiscordChannelID, cfg.Location))
	}

	return notify.New(notifiers...), nil
}
