// Package iocache persists the commit cache, view preferences and analytics history.
package iocache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// Table names of the key/value stores.
const (
	commitCacheTable = "commit_cache"
	preferencesTable = "preferences"
)

// prefVersion is the entry version written for preferences.
const prefVersion = 1

// StoreManagerImpl manages the key/value and history stores.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	commits      contract.KVStore
	prefs        contract.KVStore
	history      contract.HistoryStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// NewStoreManager opens the stores. An empty backend leaves that store unset.
func NewStoreManager(cacheBackend schema.DatabaseBackend, cacheConnStr string, historyBackend schema.DatabaseBackend, historyConnStr string) (*StoreManagerImpl, error) {
	mgr := &StoreManagerImpl{}

	if cacheBackend != "" {
		commits, err := NewKVStore(commitCacheTable, cacheBackend, cacheConnStr)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize commit cache: %w", err)
		}
		prefs, err := NewKVStore(preferencesTable, cacheBackend, cacheConnStr)
		if err != nil {
			_ = commits.Close()
			return nil, fmt.Errorf("failed to initialize preferences: %w", err)
		}
		mgr.commits, mgr.prefs = commits, prefs
	}

	if historyBackend != "" {
		history, err := NewHistoryStore(historyBackend, historyConnStr)
		if err != nil {
			_ = mgr.Close()
			return nil, fmt.Errorf("failed to initialize history store: %w", err)
		}
		mgr.history = history
	}
	return mgr, nil
}

// GetCommitStore returns the commit cache store.
func (mgr *StoreManagerImpl) GetCommitStore() contract.KVStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.commits
}

// GetPrefStore returns the preferences store.
func (mgr *StoreManagerImpl) GetPrefStore() contract.KVStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.prefs
}

// GetHistoryStore returns the analytics history store.
func (mgr *StoreManagerImpl) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}

// Close closes every open store.
func (mgr *StoreManagerImpl) Close() error {
	mgr.Lock()
	defer mgr.Unlock()

	var errs []error
	for _, c := range []interface{ Close() error }{mgr.commits, mgr.prefs, mgr.history} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	mgr.commits, mgr.prefs, mgr.history = nil, nil, nil
	return errors.Join(errs...)
}

// PrefStoreImpl adapts a KVStore to the PrefStore interface.
type PrefStoreImpl struct {
	kv  contract.KVStore
	now func() time.Time
}

var _ contract.PrefStore = &PrefStoreImpl{} // Compile-time check

// NewPrefStore returns a PrefStore over kv. A nil kv yields nil.
func NewPrefStore(kv contract.KVStore) contract.PrefStore {
	if kv == nil {
		return nil
	}
	return &PrefStoreImpl{kv: kv, now: time.Now}
}

// GetPref returns the stored value and whether one was found.
func (ps *PrefStoreImpl) GetPref(key string) ([]byte, bool, error) {
	value, _, _, err := ps.kv.Get(key)
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

// SetPref stores value under key.
func (ps *PrefStoreImpl) SetPref(key string, value []byte) error {
	return ps.kv.Set(key, value, prefVersion, ps.now().Unix())
}
