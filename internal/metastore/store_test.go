package metastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/bootspace/internal/config"
)

func TestOpen_CreatesStoreWithDefaults(t *testing.T) {
	paths := config.NewAppPaths(t.TempDir())

	store, err := Open(paths)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = os.Stat(paths.StateDBPath())
	require.NoError(t, err, "state.db should exist after Open")

	settings, err := store.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", settings.RootPath)
	assert.Equal(t, DefaultLocale, settings.Locale)
	assert.False(t, settings.UpdatedAt.IsZero())
}

func TestStore_UpdatesPersistAcrossReopen(t *testing.T) {
	ctx := context.Background()
	paths := config.NewAppPaths(t.TempDir())

	store, err := Open(paths)
	require.NoError(t, err)
	require.NoError(t, store.UpdateRootPath(ctx, paths.Root))
	require.NoError(t, store.UpdateLocale(ctx, "ja-JP"))
	require.NoError(t, store.Close())

	reopened, err := Open(paths)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	settings, err := reopened.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, paths.Root, settings.RootPath)
	assert.Equal(t, "ja-JP", settings.Locale)
}

func TestOpenFile_FailsUnderRegularFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := OpenFile(filepath.Join(blocker, "meta", "state.db"))
	assert.Error(t, err)
}

func TestOpenFile_RejectsNonDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a sqlite database, just text padding it out"), 0644))

	_, err := OpenFile(path)
	assert.Error(t, err)
}
