package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwifuady/larik/internal/model"
)

type fakeArchiver struct {
	inactive       []model.Tab
	archived       []string
	cleanupRemoved int
	findErr        error
	archiveErr     map[string]error
}

func (f *fakeArchiver) FindInactiveTabs(ctx context.Context, daysInactive int) ([]model.Tab, error) {
	return f.inactive, f.findErr
}

func (f *fakeArchiver) ArchiveTab(ctx context.Context, tabID string) (model.ArchivedTab, error) {
	if err := f.archiveErr[tabID]; err != nil {
		return model.ArchivedTab{}, err
	}
	f.archived = append(f.archived, tabID)
	return model.ArchivedTab{ID: "arc-" + tabID, OriginalTabID: tabID}, nil
}

func (f *fakeArchiver) CleanupArchive(ctx context.Context, retentionDays int) (int, error) {
	return f.cleanupRemoved, nil
}

type fakeSettings struct {
	settings model.AppSettings
}

func (f *fakeSettings) GetAppSettings(ctx context.Context) (model.AppSettings, error) {
	return f.settings, nil
}

func TestRunOnceArchivesInactiveTabs(t *testing.T) {
	arch := &fakeArchiver{inactive: []model.Tab{{ID: "t1"}, {ID: "t2"}}}
	settings := &fakeSettings{settings: model.AppSettings{
		AutoArchive:          model.AutoArchiveSettings{Enabled: true, DaysInactive: 14},
		HistoryRetentionDays: 90,
	}}
	s := New(arch, settings, time.Hour)

	s.RunOnce(context.Background())

	assert.ElementsMatch(t, []string{"t1", "t2"}, arch.archived)
}

func TestRunOnceSkipsAutoArchiveWhenDisabled(t *testing.T) {
	arch := &fakeArchiver{inactive: []model.Tab{{ID: "t1"}}}
	settings := &fakeSettings{settings: model.AppSettings{
		AutoArchive:          model.AutoArchiveSettings{Enabled: false, DaysInactive: 14},
		HistoryRetentionDays: 90,
	}}
	s := New(arch, settings, time.Hour)

	s.RunOnce(context.Background())

	assert.Empty(t, arch.archived, "auto-archive must be skipped when disabled")
}

func TestRunOnceContinuesAfterPerTabFailure(t *testing.T) {
	arch := &fakeArchiver{
		inactive:   []model.Tab{{ID: "t1"}, {ID: "t2"}},
		archiveErr: map[string]error{"t1": assert.AnError},
	}
	settings := &fakeSettings{settings: model.AppSettings{
		AutoArchive:          model.AutoArchiveSettings{Enabled: true, DaysInactive: 14},
		HistoryRetentionDays: 90,
	}}
	s := New(arch, settings, time.Hour)

	s.RunOnce(context.Background())

	assert.Equal(t, []string{"t2"}, arch.archived, "a failed archive for one tab must not stop the sweep")
}

func TestStartStopIsClean(t *testing.T) {
	arch := &fakeArchiver{}
	settings := &fakeSettings{settings: model.DefaultAppSettings()}
	s := New(arch, settings, 10*time.Millisecond)

	ctx := context.Background()
	s.Start(ctx)
	require.Eventually(t, func() bool {
		return true
	}, 50*time.Millisecond, 5*time.Millisecond)
	s.Stop()
}
