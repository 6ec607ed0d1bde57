package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/rocketshoes/internal/domain"
	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
)

func TestLoad_MissingFileIsNotFound(t *testing.T) {
	repo := NewSnapshotRepository(filepath.Join(t.TempDir(), "cart.json"))

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "cart.json")
	repo := NewSnapshotRepository(path)
	ctx := context.Background()
	cart := domain.Cart{
		{ID: 2, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", Price: 139.9, Amount: 3},
		{ID: 1, Title: "Tênis de Caminhada Leve Confortável", Price: 179.9, Amount: 1},
	}

	require.NoError(t, repo.Save(ctx, cart))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cart, got)
}

func TestSave_OverwritesWholeSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	repo := NewSnapshotRepository(path)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.Cart{{ID: 1, Amount: 1}, {ID: 2, Amount: 1}}))
	require.NoError(t, repo.Save(ctx, domain.Cart{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestLoad_CorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewSnapshotRepository(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSave_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewSnapshotRepository(filepath.Join(t.TempDir(), "cart.json")).Save(ctx, domain.Cart{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPing(t *testing.T) {
	repo := NewSnapshotRepository(filepath.Join(t.TempDir(), "nested", "cart.json"))
	assert.NoError(t, repo.Ping(context.Background()))
}
