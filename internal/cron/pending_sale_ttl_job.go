package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/tiendaya/marketplace-backend/internal/sales"
	"github.com/tiendaya/marketplace-backend/pkg/logger"
)

const defaultReaperBatch = 100

type staleSaleExpirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (sales.ExpireReport, error)
}

// PendingSaleTTLJobParams configure the pending sale reaper.
type PendingSaleTTLJobParams struct {
	Logger *logger.Logger
	Sales  staleSaleExpirer
	TTL    time.Duration
	Batch  int
}

// NewPendingSaleTTLJob returns nil when TTL is zero so the registry skips
// it.
func NewPendingSaleTTLJob(params PendingSaleTTLJobParams) (Job, error) {
	if params.TTL == 0 {
		return nil, nil
	}
	if params.TTL < 0 {
		return nil, fmt.Errorf("pending sale ttl must not be negative")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sales == nil {
		return nil, fmt.Errorf("sales service required")
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultReaperBatch
	}
	return &pendingSaleTTLJob{
		logg:  params.Logger,
		sales: params.Sales,
		ttl:   params.TTL,
		batch: batch,
		now:   time.Now,
	}, nil
}

type pendingSaleTTLJob struct {
	logg  *logger.Logger
	sales staleSaleExpirer
	ttl   time.Duration
	batch int
	now   func() time.Time
}

func (j *pendingSaleTTLJob) Name() string { return "pending-sale-ttl" }

func (j *pendingSaleTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	report, err := j.sales.ExpireStale(ctx, cutoff, j.batch)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"scanned": report.Scanned,
		"expired": report.Expired,
		"skipped": report.Skipped,
	})
	if err != nil {
		return fmt.Errorf("expire pending sales: %w", err)
	}
	j.logg.Info(logCtx, "pending sale expiration complete")
	return nil
}
