package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/internal/repository"
	"github.com/utafrali/rocketshoes/pkg/database"
	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations returns the schema migrations for database.RunMigrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

const (
	selectSnapshot = `SELECT items FROM cart_snapshots WHERE key = $1`

	upsertSnapshot = `INSERT INTO cart_snapshots (key, items, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at`
)

// SnapshotRepository implements repository.SnapshotRepository using
// PostgreSQL. The snapshot is one row keyed by repository.SnapshotKey.
type SnapshotRepository struct {
	db     database.DBTX
	key    string
	tracer database.QueryTracer
}

// NewSnapshotRepository creates a PostgreSQL-backed repository.
func NewSnapshotRepository(db database.DBTX, tracer database.QueryTracer) *SnapshotRepository {
	return &SnapshotRepository{
		db:     db,
		key:    repository.SnapshotKey,
		tracer: tracer,
	}
}

// Load reads the snapshot row.
func (r *SnapshotRepository) Load(ctx context.Context) (cart domain.Cart, err error) {
	ctx, end := r.tracer.Trace(ctx, "LoadSnapshot", selectSnapshot)
	defer func() { end(err) }()

	var data []byte
	if err := r.db.QueryRow(ctx, selectSnapshot, r.key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart snapshot", r.key)
		}
		return nil, fmt.Errorf("select cart snapshot: %w", err)
	}
	return repository.DecodeSnapshot(data)
}

// Save upserts the snapshot row.
func (r *SnapshotRepository) Save(ctx context.Context, cart domain.Cart) (err error) {
	ctx, end := r.tracer.Trace(ctx, "SaveSnapshot", upsertSnapshot)
	defer func() { end(err) }()

	data, err := repository.EncodeSnapshot(cart)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, upsertSnapshot, r.key, data); err != nil {
		return fmt.Errorf("upsert cart snapshot: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (r *SnapshotRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
