package iocache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

func TestNewStoreManager(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewStoreManager(
		schema.SQLiteBackend, filepath.Join(dir, "cache.db"),
		schema.SQLiteBackend, filepath.Join(dir, "history.db"),
	)
	require.NoError(t, err)

	assert.NotNil(t, mgr.GetCommitStore())
	assert.NotNil(t, mgr.GetPrefStore())
	assert.NotNil(t, mgr.GetHistoryStore())

	require.NoError(t, mgr.Close())
	assert.Nil(t, mgr.GetCommitStore())
	assert.NoError(t, mgr.Close(), "closing twice is safe")
}

func TestNewStoreManagerPartial(t *testing.T) {
	mgr, err := NewStoreManager(schema.NoneBackend, "", "", "")
	require.NoError(t, err)
	assert.NotNil(t, mgr.GetCommitStore())
	assert.Nil(t, mgr.GetHistoryStore())
	assert.NoError(t, mgr.Close())
}

func TestNewStoreManagerErrors(t *testing.T) {
	_, err := NewStoreManager("oracle", "", "", "")
	assert.ErrorContains(t, err, "commit cache")

	_, err = NewStoreManager(schema.NoneBackend, "", schema.RedisBackend, "")
	assert.ErrorContains(t, err, "history store")
}

func TestStoreManagerConcurrency(t *testing.T) {
	mgr, err := NewStoreManager(schema.NoneBackend, "", schema.NoneBackend, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mgr.GetCommitStore()
			_ = mgr.GetPrefStore()
			_ = mgr.GetHistoryStore()
		}()
	}
	wg.Wait()
}

func TestGlobalStores(t *testing.T) {
	dir := t.TempDir()
	initOnce = sync.Once{}  // Reset for test
	closeOnce = sync.Once{} // Reset for test

	err1 := InitStores(schema.SQLiteBackend, filepath.Join(dir, "cache.db"), schema.SQLiteBackend, filepath.Join(dir, "history.db"))
	err2 := InitStores("oracle", "", "", "")
	assert.NoError(t, err1)
	assert.NoError(t, err2, "later calls are no-ops")

	assert.NotNil(t, Manager.GetCommitStore())
	assert.NotNil(t, Manager.GetHistoryStore())

	CloseStores()
	CloseStores()
	assert.Nil(t, Manager.GetCommitStore())

	_, err := os.Stat(filepath.Join(dir, "cache.db"))
	assert.NoError(t, err, "database file should be created")
}

func TestGlobalStoresInitError(t *testing.T) {
	initOnce = sync.Once{}  // Reset for test
	closeOnce = sync.Once{} // Reset for test
	defer CloseStores()

	err := InitStores("oracle", "", "", "")
	assert.Error(t, err)
}

func TestPrefStore(t *testing.T) {
	assert.Nil(t, NewPrefStore(nil))

	kv := newTestKVStore(t, preferencesTable)
	prefs := NewPrefStore(kv).(*PrefStoreImpl)
	prefs.now = func() time.Time { return time.Unix(1700000000, 0) }

	_, ok, err := prefs.GetPref("darkMode")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, prefs.SetPref("darkMode", []byte("true")))
	value, ok, err := prefs.GetPref("darkMode")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("true"), value)

	_, version, ts, err := kv.Get("darkMode")
	require.NoError(t, err)
	assert.Equal(t, prefVersion, version)
	assert.Equal(t, int64(1700000000), ts)
}

func TestPrefStoreError(t *testing.T) {
	kv := new(contract.MockKVStore)
	kv.On("Get", "darkMode").Return(nil, 0, int64(0), errors.New("locked"))

	_, ok, err := NewPrefStore(kv).GetPref("darkMode")
	assert.Error(t, err)
	assert.False(t, ok)
	kv.AssertExpectations(t)
}

func TestClearStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewKVStore(commitCacheTable, schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearStore(schema.SQLiteBackend, path, ""))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ClearStore(schema.SQLiteBackend, path, ""), "missing file is fine")
	assert.Error(t, ClearStore(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearStore(schema.NoneBackend, "", ""))
	assert.Error(t, ClearStore("oracle", "", ""))
}

func TestClearHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearHistory(schema.SQLiteBackend, path, ""))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ClearHistory(schema.NoneBackend, "", ""))
	assert.Error(t, ClearHistory(schema.RedisBackend, "", ""))
}

func TestExportHistory(t *testing.T) {
	store := newTestHistoryStore(t)
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	id, err := store.BeginRun(helloRepo, "q", start)
	require.NoError(t, err)
	require.NoError(t, store.EndRun(id, start.Add(time.Second), true, 3))

	out := filepath.Join(t.TempDir(), "history.parquet")
	n, err := ExportHistory(store, out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestExportHistoryErrors(t *testing.T) {
	store := newTestHistoryStore(t)

	_, err := ExportHistory(store, "")
	assert.ErrorContains(t, err, "--output-file")

	_, err = ExportHistory(nil, "x.parquet")
	assert.Error(t, err)

	_, err = ExportHistory(store, filepath.Join(t.TempDir(), "x.parquet"))
	assert.ErrorIs(t, err, ErrNoHistory)

	failing := new(contract.MockHistoryStore)
	failing.On("ListRuns", 0).Return(nil, errors.New("gone"))
	_, err = ExportHistory(failing, "x.parquet")
	assert.ErrorContains(t, err, "gone")

	broken := new(contract.MockHistoryStore)
	broken.On("ListRuns", mock.Anything).Return([]schema.HistoryRecord{{RunID: 1}}, nil)
	_, err = ExportHistory(broken, "/nonexistent/dir/x.parquet")
	assert.Error(t, err)
}
