package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/tickstory/internal/adapters/file"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, "c1", domain.NewSession()))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c1.json", entries[0].Name())
}

func TestFileStore_RejectsInvalidIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "..", "a/b", `a\b`} {
		assert.ErrorIs(t, store.Save(ctx, id, domain.NewSession()), file.ErrInvalidID, "id %q", id)
	}
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "missing"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_ListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	require.NoError(t, store.Save(context.Background(), "b", domain.NewSession()))
	require.NoError(t, store.Save(context.Background(), "a", domain.NewSession()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".c.json.123"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d.json"), 0o755))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestNew_DefaultDir(t *testing.T) {
	assert.Equal(t, file.DefaultDir, file.New("").Dir())
}
