package scanner

import (
	"context"
	"time"

	"pcbuilds/internal/logger"
	"pcbuilds/internal/repository"
)

// RunScheduler scans the drop folder every interval until ctx is done.
// It blocks, so run it from an errgroup or goroutine.
func RunScheduler(ctx context.Context, sc *Scanner, settingsRepo *repository.SettingsRepository, interval time.Duration, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("scheduler started", "dir", sc.Dir(), "interval", interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			checkAndRunScan(ctx, sc, settingsRepo, log)
		}
	}
}

func checkAndRunScan(ctx context.Context, sc *Scanner, settingsRepo *repository.SettingsRepository, log *logger.Logger) {
	if settingsRepo != nil && !settingsRepo.GetBool(ctx, repository.SettingAutoImport, true) {
		return
	}
	if sc.IsRunning() {
		return
	}
	if _, err := sc.RunOnce(ctx); err != nil {
		log.Debug("scheduled scan skipped", "error", err)
	}
}
