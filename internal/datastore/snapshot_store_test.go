package datastore_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/changewatch/internal/datastore"
	"github.com/aleister1102/changewatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStore_SaveAndList(t *testing.T) {
	store, err := datastore.NewSnapshotStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	second := first.Add(5 * time.Second)

	path1, err := store.Save(models.Snapshot{TaskID: "task-1", Kind: models.KindWebsite, Content: "<p>A</p>", TakenAt: first})
	require.NoError(t, err)
	assert.Equal(t, "20240301_100000.html", filepath.Base(path1))

	path2, err := store.Save(models.Snapshot{TaskID: "task-1", Kind: models.KindRSS, Content: "[]", TakenAt: second})
	require.NoError(t, err)
	assert.Equal(t, "20240301_100005.json", filepath.Base(path2))

	data, err := os.ReadFile(path1)
	require.NoError(t, err)
	assert.Equal(t, "<p>A</p>", string(data))

	files, err := store.List("task-1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "20240301_100005.json", files[0].Name)
	assert.Equal(t, "20240301_100000.html", files[1].Name)
	assert.True(t, files[1].TakenAt.Equal(first))
	assert.Equal(t, int64(len("<p>A</p>")), files[1].Size)
}

func TestSnapshotStore_SameSecondOverwrites(t *testing.T) {
	store, err := datastore.NewSnapshotStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	_, err = store.Save(models.Snapshot{TaskID: "t", Kind: models.KindWebsite, Content: "old", TakenAt: at})
	require.NoError(t, err)
	path, err := store.Save(models.Snapshot{TaskID: "t", Kind: models.KindWebsite, Content: "new", TakenAt: at.Add(300 * time.Millisecond)})
	require.NoError(t, err)

	files, err := store.List("t")
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestSnapshotStore_ListUnknownTask(t *testing.T) {
	store, err := datastore.NewSnapshotStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	files, err := store.List("missing")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSnapshotStore_Purge(t *testing.T) {
	dir := t.TempDir()
	store, err := datastore.NewSnapshotStore(dir, zerolog.Nop())
	require.NoError(t, err)

	_, err = store.Save(models.Snapshot{TaskID: "t", Kind: models.KindGitHub, Content: "[]", TakenAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, store.Purge("t"))

	_, err = os.Stat(filepath.Join(dir, "t"))
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotStore_RejectsUnsafeTaskIDs(t *testing.T) {
	store, err := datastore.NewSnapshotStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	for _, id := range []string{"", ".", "..", "../escape", "a/b", `a\b`} {
		t.Run(id, func(t *testing.T) {
			_, err := store.Save(models.Snapshot{TaskID: id, Kind: models.KindWebsite, Content: "x"})
			assert.ErrorIs(t, err, datastore.ErrUnsafePath)
			assert.ErrorIs(t, store.Purge(id), datastore.ErrUnsafePath)
		})
	}
}
