package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/communitycompass/compass/internal/domain"
	"github.com/communitycompass/compass/internal/opendata"
	"github.com/communitycompass/compass/pkg/common"
	"github.com/communitycompass/compass/pkg/metrics"
)

const syncWorkers = 8

// SyncDirectory fetches every registered feed and refreshes the directory
// snapshot table. The live directory endpoints keep rebuilding from the
// feeds on every call; this snapshot only backs admin reporting and keeps
// the last known state when the portal is unreachable.
func (a *Application) SyncDirectory() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	started := time.Now()
	result, err := a.fetcher.FetchAll(ctx)
	if err != nil {
		return err
	}

	pool, err := ants.NewPool(syncWorkers)
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	now := time.Now()
	for _, svc := range result.Services {
		svc := svc
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			a.upsertDirectoryEntry(svc, now)
		}); err != nil {
			wg.Done()
			zap.L().Error("sync pool submit failed", zap.Error(err))
		}
	}
	wg.Wait()

	metrics.Record(metrics.FeedSyncServices, float64(len(result.Services)))
	metrics.Record(metrics.FeedSyncErrors, float64(len(result.Errors)))

	zap.L().Info("directory sync completed",
		zap.Int("services", len(result.Services)),
		zap.Int("feed_errors", len(result.Errors)),
		zap.Int("rejected", len(result.Rejections)),
		zap.Duration("elapsed", time.Since(started)))
	for _, msg := range result.Errors {
		zap.L().Warn("directory sync feed error", zap.String("error", msg))
	}
	return nil
}

func (a *Application) upsertDirectoryEntry(svc opendata.Service, seenAt time.Time) {
	sourceKey := svc.ID
	if i := strings.IndexByte(svc.ID, '/'); i > 0 {
		sourceKey = svc.ID[:i]
	}

	entry := domain.DirectoryEntry{
		ID:          common.UUIDint64(),
		SourceKey:   sourceKey,
		EntryID:     svc.ID,
		Name:        svc.Name,
		Description: svc.Description,
		Category:    svc.Category,
		Subcategory: svc.Subcategory,
		Address:     svc.Address,
		Latitude:    svc.Coordinates[1],
		Longitude:   svc.Coordinates[0],
		Hours:       svc.Hours,
		Phone:       svc.Phone,
		Website:     svc.Website,
		LastSeenAt:  seenAt,
	}
	err := a.gormDB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_key"}, {Name: "entry_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "category", "subcategory", "address",
			"latitude", "longitude", "hours", "phone", "website",
			"last_seen_at", "updated_at",
		}),
	}).Create(&entry).Error
	if err != nil {
		zap.L().Error("failed to upsert directory entry",
			zap.String("entry_id", svc.ID),
			zap.Error(err))
	}
}
