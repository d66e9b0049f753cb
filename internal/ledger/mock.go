package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockGateway is an in-process ledger for local runs. Submissions are keyed by
// operation id, so resubmitting returns the first ref. A submitted operation
// is reported CONFIRMED after ConfirmAfter confirmation polls.
type MockGateway struct {
	mu           sync.Mutex
	refs         map[string]string
	polls        map[string]int
	ConfirmAfter int
	// FailSubmits makes the next n Submit calls fail with a transient error.
	FailSubmits int
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		refs:  make(map[string]string),
		polls: make(map[string]int),
	}
}

func (m *MockGateway) Submit(ctx context.Context, op Operation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSubmits > 0 {
		m.FailSubmits--
		return "", fmt.Errorf("mock ledger unavailable")
	}
	if ref, ok := m.refs[op.ID]; ok {
		return ref, nil
	}
	ref := "mock-" + uuid.NewString()
	m.refs[op.ID] = ref
	return ref, nil
}

func (m *MockGateway) GetConfirmation(ctx context.Context, ref string) (ConfirmationStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	known := false
	for _, r := range m.refs {
		if r == ref {
			known = true
			break
		}
	}
	if !known {
		return ConfirmationFailed, nil
	}
	m.polls[ref]++
	if m.polls[ref] > m.ConfirmAfter {
		return ConfirmationConfirmed, nil
	}
	return ConfirmationPending, nil
}

// Submitted returns how many distinct operations were accepted.
func (m *MockGateway) Submitted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.refs)
}
