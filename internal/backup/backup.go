package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sheikh-saqib/expense-ledger-bot/internal/models"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/storage/file"
)

const (
	filePrefix = "backup-"
	fileSuffix = ".json"
	dateLayout = "2006-01-02"
)

// ErrAlreadyExists is returned when a snapshot for the day was already written.
var ErrAlreadyExists = errors.New("backup for this day already exists")

// Snapshotter writes dated copies of the ledger into a directory.
type Snapshotter struct {
	dir       string
	retention int // number of files kept, 0 keeps everything
	logger    *zap.Logger
}

func NewSnapshotter(dir string, retention int, logger *zap.Logger) *Snapshotter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Snapshotter{
		dir:       dir,
		retention: retention,
		logger:    logger,
	}
}

// FileName returns the snapshot file name for the calendar day of t (UTC).
func FileName(t time.Time) string {
	return filePrefix + t.UTC().Format(dateLayout) + fileSuffix
}

// Write stores ledger as the snapshot for the day of now and prunes old snapshots.
// An existing snapshot for the same day is left untouched and ErrAlreadyExists is returned.
func (s *Snapshotter) Write(ctx context.Context, ledger models.Ledger, now time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := file.Encode(ledger)
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(s.dir, FileName(now))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return path, ErrAlreadyExists
	}
	if err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close backup: %w", err)
	}

	if err := s.prune(); err != nil {
		s.logger.Warn("failed to prune backups", zap.String("dir", s.dir), zap.Error(err))
	}
	return path, nil
}

// List returns the snapshot file names in the directory, oldest first.
func (s *Snapshotter) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !isSnapshotName(name) {
			continue
		}
		names = append(names, name)
	}
	// dates are zero padded, so lexical order is chronological
	slices.Sort(names)
	return names, nil
}

func (s *Snapshotter) prune() error {
	if s.retention <= 0 {
		return nil
	}
	names, err := s.List()
	if err != nil {
		return err
	}
	if len(names) <= s.retention {
		return nil
	}

	var errs []error
	for _, name := range names[:len(names)-s.retention] {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger.Info("pruned backup", zap.String("file", name))
	}
	return errors.Join(errs...)
}

func isSnapshotName(name string) bool {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return false
	}
	date := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	_, err := time.Parse(dateLayout, date)
	return err == nil
}
