package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sheikh-saqib/expense-ledger-bot/internal/models"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/storage/file"
)

type staticSource struct {
	ledger models.Ledger
	err    error
}

func (s staticSource) Snapshot(context.Context) (models.Ledger, error) {
	return s.ledger, s.err
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *countingRecorder) RecordBackup(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[string]int)
	}
	r.outcomes[outcome]++
}

func (r *countingRecorder) count(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[outcome]
}

func sampleLedger() models.Ledger {
	return models.Ledger{
		"1": {Balance: decimal.NewFromInt(-5), Expenses: []models.Expense{
			{Amount: decimal.NewFromInt(5), Category: "snack", CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
		}},
	}
}

func TestFileName(t *testing.T) {
	day := time.Date(2025, 7, 4, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "backup-2025-07-04.json", FileName(day))
}

func TestSnapshotter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	s := NewSnapshotter(dir, 0, nil)
	now := time.Date(2025, 7, 4, 8, 0, 0, 0, time.UTC)

	path, err := s.Write(context.Background(), sampleLedger(), now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backup-2025-07-04.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	restored, err := file.Decode(data)
	require.NoError(t, err)
	assert.True(t, restored["1"].Balance.Equal(decimal.NewFromInt(-5)))
}

func TestSnapshotter_NeverOverwritesSameDay(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshotter(dir, 0, nil)
	morning := time.Date(2025, 7, 4, 8, 0, 0, 0, time.UTC)

	path, err := s.Write(context.Background(), sampleLedger(), morning)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = s.Write(context.Background(), models.Ledger{}, morning.Add(10*time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSnapshotter_Retention(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshotter(dir, 3, nil)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644))

	for i := 0; i < 5; i++ {
		_, err := s.Write(context.Background(), sampleLedger(), start.AddDate(0, 0, i))
		require.NoError(t, err)
	}

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"backup-2025-01-03.json",
		"backup-2025-01-04.json",
		"backup-2025-01-05.json",
	}, names)
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestSnapshotter_ListMissingDir(t *testing.T) {
	names, err := NewSnapshotter(filepath.Join(t.TempDir(), "nope"), 0, nil).List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestScheduler_RunOnce(t *testing.T) {
	dir := t.TempDir()
	rec := &countingRecorder{}
	sched := NewScheduler(staticSource{ledger: sampleLedger()}, NewSnapshotter(dir, 0, nil), time.Hour, rec, nil)
	sched.now = func() time.Time { return time.Date(2025, 8, 9, 1, 2, 3, 0, time.UTC) }

	path, err := sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backup-2025-08-09.json"), path)

	path, err = sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, path)

	assert.Equal(t, 1, rec.count(OutcomeWritten))
	assert.Equal(t, 1, rec.count(OutcomeSkipped))
}

func TestScheduler_RunOnceSourceError(t *testing.T) {
	rec := &countingRecorder{}
	boom := errors.New("unreadable")
	sched := NewScheduler(staticSource{err: boom}, NewSnapshotter(t.TempDir(), 0, nil), time.Hour, rec, nil)

	_, err := sched.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, rec.count(OutcomeFailed))
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	rec := &countingRecorder{}
	sched := NewScheduler(staticSource{ledger: sampleLedger()}, NewSnapshotter(dir, 0, nil), 5*time.Millisecond, rec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return rec.count(OutcomeWritten) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestScheduler_DisabledInterval(t *testing.T) {
	defer goleak.VerifyNone(t)

	sched := NewScheduler(staticSource{}, NewSnapshotter(t.TempDir(), 0, nil), 0, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	cancel()
	<-done
}
