// Package scheduler is the background auto-archive and retention loop
// (C9): an hourly tick that reads AppSettings and drives C3's archive
// sweep and cleanup, per spec.md §6 step 4.
//
// Grounded on cuemby-warren's pkg/scheduler.Scheduler: the
// Start/Stop/run/stopCh ticker shape and the "log the error, continue
// the loop" failure policy are carried over directly, generalized from
// one fixed 5-second container-scheduling tick to one configurable
// interval driving an archive sweep instead.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dwifuady/larik/internal/applog"
	"github.com/dwifuady/larik/internal/model"
)

// archiver is the subset of internal/archive.Repository the scheduler
// drives; defined here so this package depends only on the narrow
// surface it needs, not the whole archive package.
type archiver interface {
	FindInactiveTabs(ctx context.Context, daysInactive int) ([]model.Tab, error)
	ArchiveTab(ctx context.Context, tabID string) (model.ArchivedTab, error)
	CleanupArchive(ctx context.Context, retentionDays int) (int, error)
}

// settingsReader is the subset of internal/workspace.Repository the
// scheduler reads each tick.
type settingsReader interface {
	GetAppSettings(ctx context.Context) (model.AppSettings, error)
}

// Scheduler runs the hourly auto-archive and retention sweep.
type Scheduler struct {
	archive  archiver
	settings settingsReader
	logger   zerolog.Logger
	interval time.Duration

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs a Scheduler; interval defaults to one hour, per
// spec.md §6's "hourly ticker-based loop".
func New(archive archiver, settings settingsReader, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		archive:  archive,
		settings: settings,
		logger:   applog.WithComponent("scheduler"),
		interval: interval,
	}
}

// Start begins the scheduler loop in a background goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()
	go s.run(ctx)
}

// Stop signals the loop to exit and waits for it to do so. Safe to
// call even if Start was never called.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick performs one sweep: auto-archive inactive tabs, then retention
// cleanup, per spec.md §6 steps 1-4. It never holds C1's write mutex
// across the tick — each archive/cleanup call is its own short-lived
// write session — and tolerates per-tab failures by logging and
// continuing, matching the teacher's "log error, continue" policy.
func (s *Scheduler) tick(ctx context.Context) {
	settings, err := s.settings.GetAppSettings(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read app settings, skipping tick")
		return
	}

	if settings.AutoArchive.Enabled {
		s.runAutoArchive(ctx, settings.AutoArchive.DaysInactive)
	}

	s.runCleanup(ctx, settings.HistoryRetentionDays)
}

func (s *Scheduler) runAutoArchive(ctx context.Context, daysInactive int) {
	tabs, err := s.archive.FindInactiveTabs(ctx, daysInactive)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to find inactive tabs")
		return
	}
	for _, tab := range tabs {
		if _, err := s.archive.ArchiveTab(ctx, tab.ID); err != nil {
			s.logger.Error().Err(err).Str("tab_id", tab.ID).Msg("failed to auto-archive inactive tab")
			continue
		}
	}
	if len(tabs) > 0 {
		s.logger.Info().Int("count", len(tabs)).Msg("auto-archived inactive tabs")
	}
}

func (s *Scheduler) runCleanup(ctx context.Context, retentionDays int) {
	removed, err := s.archive.CleanupArchive(ctx, retentionDays)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to clean up archive retention")
		return
	}
	if removed > 0 {
		s.logger.Info().Int("count", removed).Msg("cleaned up expired archive entries")
	}
}

// RunOnce performs a single sweep synchronously, outside the ticker
// loop; used by tests and by a manual "archive now" command path.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.tick(ctx)
}
