// normalize_phones rewrites stored phone numbers of registrations and team
// members into E.164 form. Run with: go run ./scripts
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AlexTLDR/lesezirkel/internal/config"
	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/logging"
	"github.com/AlexTLDR/lesezirkel/internal/utils"
	"github.com/joho/godotenv"
)

type phoneRow struct {
	ID    uint
	Phone string
}

func main() {
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
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	for _, model := range []any{&database.EventRegistration{}, &database.TeamMember{}} {
		var rows []phoneRow
		if err := db.WithContext(ctx).Model(model).Where("phone <> ''").Find(&rows).Error; err != nil {
			logger.Fatal().Err(err).Msg("failed to query phones")
		}

		updated, failed := 0, 0
		for _, row := range rows {
			normalized, err := utils.NormalizePhoneNumber(row.Phone)
			if err != nil {
				logger.Warn().Err(err).Uint("id", row.ID).Str("phone", row.Phone).Msg("failed to normalize phone")
				failed++
				continue
			}
			if normalized == row.Phone {
				continue
			}
			err = db.WithContext(ctx).Model(model).Where("id = ?", row.ID).UpdateColumn("phone", normalized).Error
			if err != nil {
				logger.Warn().Err(err).Uint("id", row.ID).Msg("failed to update phone")
				failed++
				continue
			}
			updated++
		}

		fmt.Printf("%T: total %d, updated %d, failed %d, unchanged %d\n",
			model, len(rows), updated, failed, len(rows)-updated-failed)
	}
}
