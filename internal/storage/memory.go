package storage

import (
	"fmt"
	"sync"

	"map-assistant/internal/model"
)

type MemoryStorage struct {
	turns []model.Turn
	ids   map[string]struct{}
	mu    sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		turns: make([]model.Turn, 0),
		ids:   make(map[string]struct{}),
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) AppendTurn(turn model.Turn) error {
	if turn.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTurn)
	}
	if turn.Role != model.RoleUser && turn.Role != model.RoleAssistant {
		return fmt.Errorf("%w: role %q", ErrInvalidTurn, turn.Role)
	}
	if turn.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidTurn)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.ids[turn.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTurn, turn.ID)
	}

	m.ids[turn.ID] = struct{}{}
	m.turns = append(m.turns, turn)
	return nil
}

func (m *MemoryStorage) Turns() []model.Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	turns := make([]model.Turn, len(m.turns))
	copy(turns, m.turns)
	return turns
}

func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.turns)
}
