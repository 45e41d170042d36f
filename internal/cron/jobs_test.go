package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tiendaya/marketplace-backend/internal/sales"
	"github.com/tiendaya/marketplace-backend/pkg/logger"
)

type fakeExpirer struct {
	cutoff time.Time
	limit  int
	report sales.ExpireReport
	err    error
}

func (f *fakeExpirer) ExpireStale(_ context.Context, cutoff time.Time, limit int) (sales.ExpireReport, error) {
	f.cutoff = cutoff
	f.limit = limit
	return f.report, f.err
}

func TestPendingSaleTTLJobUsesCutoff(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	expirer := &fakeExpirer{report: sales.ExpireReport{Scanned: 2, Expired: 2}}
	job, err := NewPendingSaleTTLJob(PendingSaleTTLJobParams{
		Logger: logger.Nop(),
		Sales:  expirer,
		TTL:    72 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	ttlJob := job.(*pendingSaleTTLJob)
	ttlJob.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := now.Add(-72 * time.Hour); !expirer.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, expirer.cutoff)
	}
	if expirer.limit != defaultReaperBatch {
		t.Fatalf("expected default batch, got %d", expirer.limit)
	}

	expirer.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error to propagate")
	}
}

func TestPendingSaleTTLJobDisabledWithZeroTTL(t *testing.T) {
	job, err := NewPendingSaleTTLJob(PendingSaleTTLJobParams{Logger: logger.Nop(), Sales: &fakeExpirer{}})
	if err != nil || job != nil {
		t.Fatalf("expected disabled job, got %v %v", job, err)
	}
	if _, err := NewPendingSaleTTLJob(PendingSaleTTLJobParams{Logger: logger.Nop(), Sales: &fakeExpirer{}, TTL: -time.Hour}); err == nil {
		t.Fatalf("expected error for negative ttl")
	}
}

type fakeOutboxPruner struct {
	cutoff time.Time
	err    error
}

func (f *fakeOutboxPruner) DeletePublishedBefore(_ *gorm.DB, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func TestOutboxRetentionJob(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxPruner{}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: logger.Nop(), DB: passthroughTx{}, Repository: repo})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := now.Add(-outboxRetention); !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoff)
	}
	repo.err = errors.New("boom")
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

type fakeNotificationPruner struct {
	cutoff time.Time
}

func (f *fakeNotificationPruner) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 1, nil
}

func TestNotificationCleanupJob(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeNotificationPruner{}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: logger.Nop(), Repository: repo, Retention: 7 * 24 * time.Hour})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	job.(*notificationCleanupJob).now = func() time.Time { return now }
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := now.Add(-7 * 24 * time.Hour); !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoff)
	}
}
