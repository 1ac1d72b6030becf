package contract

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/huangsam/repopulse/schema"
)

// MockGitClient is a mock implementation of GitClient for testing.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{}

// Run mocks the Run method.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	callArgs := []any{ctx, repoPath}
	for _, a := range args {
		callArgs = append(callArgs, a)
	}
	ret := m.Called(callArgs...)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// GetRepoRoot mocks the GetRepoRoot method.
func (m *MockGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	ret := m.Called(ctx, contextPath)
	return ret.String(0), ret.Error(1)
}

// GetRemoteURL mocks the GetRemoteURL method.
func (m *MockGitClient) GetRemoteURL(ctx context.Context, repoPath string, remote string) (string, error) {
	ret := m.Called(ctx, repoPath, remote)
	return ret.String(0), ret.Error(1)
}

// GetCommitDates mocks the GetCommitDates method.
func (m *MockGitClient) GetCommitDates(ctx context.Context, repoPath string, since time.Time, limit int) ([]string, error) {
	ret := m.Called(ctx, repoPath, since, limit)
	dates, _ := ret.Get(0).([]string)
	return dates, ret.Error(1)
}

// MockCommitSource is a mock implementation of CommitSource for testing.
type MockCommitSource struct {
	mock.Mock
}

var _ CommitSource = &MockCommitSource{}

// Kind mocks the Kind method.
func (m *MockCommitSource) Kind() schema.SourceKind {
	ret := m.Called()
	return ret.Get(0).(schema.SourceKind)
}

// FetchCommits mocks the FetchCommits method.
func (m *MockCommitSource) FetchCommits(ctx context.Context, repo schema.RepoRef) ([]schema.CommitRecord, error) {
	ret := m.Called(ctx, repo)
	records, _ := ret.Get(0).([]schema.CommitRecord)
	return records, ret.Error(1)
}

// MockAnalyticsClient is a mock implementation of AnalyticsClient for testing.
type MockAnalyticsClient struct {
	mock.Mock
}

var _ AnalyticsClient = &MockAnalyticsClient{}

// Ask mocks the Ask method.
func (m *MockAnalyticsClient) Ask(ctx context.Context, req schema.AnalyticsRequest, credential string) (schema.AnalyticsResponse, error) {
	ret := m.Called(ctx, req, credential)
	return ret.Get(0).(schema.AnalyticsResponse), ret.Error(1)
}

// MockKVStore is a mock implementation of KVStore for testing.
type MockKVStore struct {
	mock.Mock
}

var _ KVStore = &MockKVStore{}

// Get mocks the Get method.
func (m *MockKVStore) Get(key string) ([]byte, int, int64, error) {
	ret := m.Called(key)
	value, _ := ret.Get(0).([]byte)
	return value, ret.Int(1), ret.Get(2).(int64), ret.Error(3)
}

// Set mocks the Set method.
func (m *MockKVStore) Set(key string, value []byte, version int, timestamp int64) error {
	ret := m.Called(key, value, version, timestamp)
	return ret.Error(0)
}

// Delete mocks the Delete method.
func (m *MockKVStore) Delete(key string) error {
	ret := m.Called(key)
	return ret.Error(0)
}

// GetStatus mocks the GetStatus method.
func (m *MockKVStore) GetStatus() (schema.StoreStatus, error) {
	ret := m.Called()
	return ret.Get(0).(schema.StoreStatus), ret.Error(1)
}

// Close mocks the Close method.
func (m *MockKVStore) Close() error {
	ret := m.Called()
	return ret.Error(0)
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ HistoryStore = &MockHistoryStore{}

// BeginRun mocks the BeginRun method.
func (m *MockHistoryStore) BeginRun(repo schema.RepoRef, message string, startTime time.Time) (int64, error) {
	ret := m.Called(repo, message, startTime)
	return ret.Get(0).(int64), ret.Error(1)
}

// EndRun mocks the EndRun method.
func (m *MockHistoryStore) EndRun(runID int64, endTime time.Time, succeeded bool, explanationLength int) error {
	ret := m.Called(runID, endTime, succeeded, explanationLength)
	return ret.Error(0)
}

// ListRuns mocks the ListRuns method.
func (m *MockHistoryStore) ListRuns(limit int) ([]schema.HistoryRecord, error) {
	ret := m.Called(limit)
	runs, _ := ret.Get(0).([]schema.HistoryRecord)
	return runs, ret.Error(1)
}

// GetStatus mocks the GetStatus method.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	ret := m.Called()
	return ret.Get(0).(schema.HistoryStatus), ret.Error(1)
}

// Close mocks the Close method.
func (m *MockHistoryStore) Close() error {
	ret := m.Called()
	return ret.Error(0)
}

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ StoreManager = &MockStoreManager{}

// GetCommitStore mocks the GetCommitStore method.
func (m *MockStoreManager) GetCommitStore() KVStore {
	ret := m.Called()
	store, _ := ret.Get(0).(KVStore)
	return store
}

// GetPrefStore mocks the GetPrefStore method.
func (m *MockStoreManager) GetPrefStore() KVStore {
	ret := m.Called()
	store, _ := ret.Get(0).(KVStore)
	return store
}

// GetHistoryStore mocks the GetHistoryStore method.
func (m *MockStoreManager) GetHistoryStore() HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(HistoryStore)
	return store
}
