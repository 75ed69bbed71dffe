// Command createstaff creates or updates a staff account that can sign in
// to the admin area with a password.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AlexTLDR/lesezirkel/internal/config"
	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	email := pflag.StringP("email", "e", "", "account email (required)")
	name := pflag.StringP("name", "n", "", "display name")
	password := pflag.StringP("password", "p", "", "password, empty keeps the current one")
	staff := pflag.Bool("staff", true, "grant admin access")
	active := pflag.Bool("active", true, "account may sign in")
	pflag.Parse()

	if *email == "" {
		pflag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Environment, cfg.LogLevel)

	ctx := context.Background()
	db, err := database.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	user, err := db.UpsertStaff(ctx, *email, *name, *password, *staff, *active)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to save staff account")
	}
	logger.Info().Uint("id", user.ID).Str("email", user.Email).Bool("staff", user.IsStaff).Bool("active", user.IsActive).Msg("staff account saved")
}
