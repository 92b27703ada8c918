package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	inventoryJobName    = "theme_inventory"
	inventoryJobTimeout = 30 * time.Second
)

// ThemeCounter reports how many themes are stored.
type ThemeCounter interface {
	CountThemes(ctx context.Context) (system, owned int, err error)
}

// InventoryRecorder receives the latest theme counts.
type InventoryRecorder interface {
	SetStoredThemes(system, owned int)
}

// RegisterInventoryJob refreshes the stored theme gauges on cronExpr.
func RegisterInventoryJob(svc *Service, counter ThemeCounter, recorder InventoryRecorder, cronExpr string) error {
	if counter == nil || recorder == nil {
		return fmt.Errorf("inventory job requires a counter and a recorder")
	}

	jobLogger := log.With().
		Str("component", "theme_inventory_job").
		Str("job_name", inventoryJobName).
		Str("cron", cronExpr).
		Logger()

	_, err := svc.AddJob(inventoryJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), inventoryJobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		if err := RunInventory(ctx, counter, recorder); err != nil {
			jobLogger.Error().Err(err).Msg("Theme inventory failed")
		}
	})
	return err
}

// RunInventory performs one inventory pass.
func RunInventory(ctx context.Context, counter ThemeCounter, recorder InventoryRecorder) error {
	system, owned, err := counter.CountThemes(ctx)
	if err != nil {
		return fmt.Errorf("count themes: %w", err)
	}
	recorder.SetStoredThemes(system, owned)
	log.Ctx(ctx).Debug().Int("system", system).Int("owned", owned).Msg("Theme inventory refreshed")
	return nil
}
