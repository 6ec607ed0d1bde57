package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/internal/repository"
	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
)

// SnapshotRepository implements repository.SnapshotRepository on a single
// JSON file.
type SnapshotRepository struct {
	path string
}

// NewSnapshotRepository creates a file-backed repository writing to path.
func NewSnapshotRepository(path string) *SnapshotRepository {
	return &SnapshotRepository{path: path}
}

// Load reads the snapshot file.
func (r *SnapshotRepository) Load(_ context.Context) (domain.Cart, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NotFound("cart snapshot", repository.SnapshotKey)
		}
		return nil, fmt.Errorf("read cart snapshot: %w", err)
	}
	return repository.DecodeSnapshot(data)
}

// Save writes the snapshot to a temporary file in the same directory and
// renames it over the previous one, so readers never see a partial file.
func (r *SnapshotRepository) Save(ctx context.Context, cart domain.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := repository.EncodeSnapshot(cart)
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cart-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace cart snapshot: %w", err)
	}
	return nil
}

// Ping checks that the snapshot directory exists or can be created.
func (r *SnapshotRepository) Ping(_ context.Context) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("snapshot directory unavailable: %w", err)
	}
	return nil
}
