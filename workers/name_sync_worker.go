// workers/name_sync_worker.go
package workers

import (
	"context"
	"time"

	"draft-session-system/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NameSyncWorker keeps the denormalized display names on match_players in
// step with the player table. A player's name is copied to their rating
// row when it was first created and drifts once the player renames in a
// later session; this worker reconciles the copies periodically.
type NameSyncWorker struct {
	db       *gorm.DB
	log      *zap.Logger
	interval time.Duration
}

func NewNameSyncWorker(db *gorm.DB, log *zap.Logger, interval time.Duration) *NameSyncWorker {
	return &NameSyncWorker{db: db, log: log, interval: interval}
}

// Start runs the sync loop until the context is cancelled. One sync pass
// runs immediately on startup.
func (w *NameSyncWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.syncOnce()
	for {
		select {
		case <-ctx.Done():
			w.log.Info("name sync worker stopping")
			return
		case <-ticker.C:
			w.syncOnce()
		}
	}
}

func (w *NameSyncWorker) syncOnce() {
	var stale []models.MatchPlayer
	err := w.db.
		Joins("JOIN players ON players.id = match_players.player_id AND players.name <> match_players.name").
		Find(&stale).Error
	if err != nil {
		w.log.Error("name sync query failed", zap.Error(err))
		return
	}

	for _, mp := range stale {
		var player models.Player
		if err := w.db.First(&player, "id = ?", mp.PlayerID).Error; err != nil {
			continue
		}
		err := w.db.Model(&models.MatchPlayer{}).
			Where("player_id = ?", mp.PlayerID).
			Update("name", player.Name).Error
		if err != nil {
			w.log.Error("name sync update failed", zap.String("player_id", mp.PlayerID), zap.Error(err))
			continue
		}
		w.log.Info("synced player display name",
			zap.String("player_id", mp.PlayerID),
			zap.String("name", player.Name))
	}
}
