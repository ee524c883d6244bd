package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/tariffs-service/internal/repository"
	"github.com/user/tariffs-service/pkg/metrics"
)

const (
	PhaseRawFiles     = "raw_files"
	PhaseRawSnapshots = "raw_snapshots"
	PhasePrune        = "prune_tariffs_box"
)

// PruneStats reports what PruneTariffsBox removed.
type PruneStats struct {
	SurvivorRawID string    `json:"survivorRawId,omitempty"`
	DeletedDay    int64     `json:"deletedYesterday"`
	DeletedOlder  int64     `json:"deletedOlder"`
	StartOfToday  time.Time `json:"startOfToday"`
}

// RetentionReport is the outcome of RunAll.
type RetentionReport struct {
	RawFilesDeleted     int        `json:"rawFilesDeleted"`
	RawSnapshotsDeleted int64      `json:"rawSnapshotsDeleted"`
	Prune               PruneStats `json:"prune"`
}

// Retention removes aged raw files, raw snapshots and superseded normalized rows.
type Retention interface {
	PurgeRawFiles(ctx context.Context, retentionDays int) (int, error)
	PurgeRawSnapshots(ctx context.Context, retentionDays int) (int64, error)
	PruneTariffsBox(ctx context.Context) (PruneStats, error)
	// RunAll attempts all three phases; a failing phase does not stop the
	// others and the errors are joined.
	RunAll(ctx context.Context) (RetentionReport, error)
}

// RetentionConfig holds the age limits used by RunAll.
type RetentionConfig struct {
	RawFileDays     int
	RawSnapshotDays int
}

type retentionUseCase struct {
	archive repository.RawArchive
	rawRepo repository.RawSnapshotRepository
	boxRepo repository.TariffsBoxRepository
	cfg     RetentionConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewRetention creates a new Retention use case.
func NewRetention(
	archive repository.RawArchive,
	rawRepo repository.RawSnapshotRepository,
	boxRepo repository.TariffsBoxRepository,
	cfg RetentionConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) Retention {
	return &retentionUseCase{
		archive: archive,
		rawRepo: rawRepo,
		boxRepo: boxRepo,
		cfg:     cfg,
		metrics: m,
		logger:  logger.Named("retention"),
		now:     time.Now,
	}
}

func (uc *retentionUseCase) cutoff(days int) time.Time {
	return uc.now().Add(-time.Duration(days) * 24 * time.Hour)
}

func (uc *retentionUseCase) PurgeRawFiles(ctx context.Context, retentionDays int) (int, error) {
	cutoff := uc.cutoff(retentionDays)
	n, err := uc.archive.PurgeModifiedBefore(ctx, cutoff)
	if err != nil {
		uc.logger.Error("raw file purge failed", zap.String("phase", PhaseRawFiles), zap.Error(err))
		return n, fmt.Errorf("purge raw files: %w", err)
	}
	uc.metrics.RetentionDeletedTotal.WithLabelValues(PhaseRawFiles).Add(float64(n))
	uc.logger.Info("raw files purged", zap.String("phase", PhaseRawFiles), zap.Int("deleted", n), zap.Time("cutoff", cutoff))
	return n, nil
}

func (uc *retentionUseCase) PurgeRawSnapshots(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := uc.cutoff(retentionDays)
	n, err := uc.rawRepo.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		uc.logger.Error("raw snapshot purge failed", zap.String("phase", PhaseRawSnapshots), zap.Error(err))
		return 0, fmt.Errorf("purge raw snapshots: %w", err)
	}
	uc.metrics.RetentionDeletedTotal.WithLabelValues(PhaseRawSnapshots).Add(float64(n))
	uc.logger.Info("raw snapshots purged", zap.String("phase", PhaseRawSnapshots), zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	return n, nil
}

// PruneTariffsBox keeps, for yesterday, only the records of the last run and
// drops everything older. Today's records are never touched.
func (uc *retentionUseCase) PruneTariffsBox(ctx context.Context) (PruneStats, error) {
	now := uc.now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfYesterday := startOfToday.AddDate(0, 0, -1)
	stats := PruneStats{StartOfToday: startOfToday}

	fail := func(err error) (PruneStats, error) {
		uc.logger.Error("prune failed", zap.String("phase", PhasePrune), zap.Error(err))
		return stats, fmt.Errorf("prune tariffs box: %w", err)
	}

	survivor, ok, err := uc.boxRepo.LatestRawIDBetween(ctx, startOfYesterday, startOfToday)
	if err != nil {
		return fail(err)
	}
	if ok {
		stats.SurvivorRawID = survivor
		stats.DeletedDay, err = uc.boxRepo.DeleteBetweenExcept(ctx, startOfYesterday, startOfToday, survivor)
		if err != nil {
			return fail(err)
		}
	}

	stats.DeletedOlder, err = uc.boxRepo.DeleteUpdatedBefore(ctx, startOfYesterday)
	if err != nil {
		return fail(err)
	}

	uc.metrics.RetentionDeletedTotal.WithLabelValues(PhasePrune).Add(float64(stats.DeletedDay + stats.DeletedOlder))
	uc.logger.Info("tariffs box pruned",
		zap.String("phase", PhasePrune),
		zap.String("survivor_raw_id", survivor),
		zap.Int64("deleted_yesterday", stats.DeletedDay),
		zap.Int64("deleted_older", stats.DeletedOlder),
	)
	return stats, nil
}

func (uc *retentionUseCase) RunAll(ctx context.Context) (RetentionReport, error) {
	var report RetentionReport
	var errs []error

	n, err := uc.PurgeRawFiles(ctx, uc.cfg.RawFileDays)
	report.RawFilesDeleted = n
	errs = append(errs, err)

	rows, err := uc.PurgeRawSnapshots(ctx, uc.cfg.RawSnapshotDays)
	report.RawSnapshotsDeleted = rows
	errs = append(errs, err)

	report.Prune, err = uc.PruneTariffsBox(ctx)
	errs = append(errs, err)

	return report, errors.Join(errs...)
}
