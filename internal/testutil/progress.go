package testutil

import (
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// MockProgressTracker is a mock implementation of ProgressTracker for testing.
type MockProgressTracker struct {
	mu sync.Mutex

	UpdateCalled     bool
	CompleteCalled   bool
	ErrorCalled      bool
	BytesTransferred int64
	TotalBytes       int64
	LastError        error
	Updates          []ProgressUpdate // For detailed tracking
}

// ProgressUpdate represents a single progress update event.
type ProgressUpdate struct {
	Action      transfertypes.Action
	Transferred int64
	Total       int64
}

// Update records a progress update.
func (m *MockProgressTracker) Update(action transfertypes.Action, bytesTransferred, totalBytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalled = true
	m.BytesTransferred = bytesTransferred
	m.TotalBytes = totalBytes
	m.Updates = append(m.Updates, ProgressUpdate{
		Action:      action,
		Transferred: bytesTransferred,
		Total:       totalBytes,
	})
}

// Complete marks the operation as complete.
func (m *MockProgressTracker) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalled = true
}

// Error records an error.
func (m *MockProgressTracker) Error(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCalled = true
	m.LastError = err
}

// UpdatesFor returns the recorded updates with the given action.
func (m *MockProgressTracker) UpdatesFor(action transfertypes.Action) []ProgressUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ProgressUpdate
	for _, u := range m.Updates {
		if u.Action == action {
			out = append(out, u)
		}
	}
	return out
}

// Reset clears the mock tracker state.
func (m *MockProgressTracker) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalled = false
	m.CompleteCalled = false
	m.ErrorCalled = false
	m.BytesTransferred = 0
	m.TotalBytes = 0
	m.LastError = nil
	m.Updates = nil
}
