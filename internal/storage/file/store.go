package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	interfaces "github.com/sheikh-saqib/expense-ledger-bot/internal/interfaces"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/models"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FileLedgerStore keeps the whole ledger in one JSON document on disk.
// It is not safe for concurrent read-modify-write; callers serialize access.
type FileLedgerStore struct {
	path string
}

func NewFileLedgerStore(path string) *FileLedgerStore {
	return &FileLedgerStore{path: path}
}

func (s *FileLedgerStore) Path() string {
	return s.path
}

// Load reads the ledger, initializing the file to an empty document when absent.
func (s *FileLedgerStore) Load(ctx context.Context) (models.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.write([]byte("{}")); err != nil {
			return nil, fmt.Errorf("initialize ledger file: %w", err)
		}
		return make(models.Ledger), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	return Decode(data)
}

// Save replaces the file contents with the encoded ledger via temp file and rename.
func (s *FileLedgerStore) Save(ctx context.Context, ledger models.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(ledger)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.write(data); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}
	return nil
}

func (s *FileLedgerStore) write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return err
	}
	return renameio.WriteFile(s.path, data, filePerm)
}

var _ interfaces.LedgerStore = (*FileLedgerStore)(nil)
