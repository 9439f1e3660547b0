package storage

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"map-assistant/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(id string, role model.Role) model.Turn {
	return model.Turn{ID: id, Role: role, Content: "c-" + id, CreatedAt: time.Now()}
}

func TestMemoryStorageAppendAndList(t *testing.T) {
	s := NewMemoryStorage()
	require.NoError(t, s.Init())

	assert.Zero(t, s.Len())

	require.NoError(t, s.AppendTurn(turn("a", model.RoleAssistant)))
	require.NoError(t, s.AppendTurn(turn("b", model.RoleUser)))

	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "a", turns[0].ID)
	assert.Equal(t, "b", turns[1].ID)
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStorageTurnsIsACopy(t *testing.T) {
	s := NewMemoryStorage()
	require.NoError(t, s.AppendTurn(turn("a", model.RoleUser)))

	turns := s.Turns()
	turns[0].Content = "changed"

	assert.Equal(t, "c-a", s.Turns()[0].Content)
}

func TestMemoryStorageRejectsInvalidTurns(t *testing.T) {
	s := NewMemoryStorage()

	err := s.AppendTurn(turn("", model.RoleUser))
	assert.ErrorIs(t, err, ErrInvalidTurn)

	err = s.AppendTurn(turn("x", model.Role("system")))
	assert.ErrorIs(t, err, ErrInvalidTurn)

	err = s.AppendTurn(model.Turn{ID: "y", Role: model.RoleUser})
	assert.ErrorIs(t, err, ErrInvalidTurn)

	require.NoError(t, s.AppendTurn(turn("dup", model.RoleUser)))
	err = s.AppendTurn(turn("dup", model.RoleAssistant))
	assert.ErrorIs(t, err, ErrDuplicateTurn)

	assert.Equal(t, 1, s.Len())
}

func TestMemoryStorageConcurrentAppend(t *testing.T) {
	s := NewMemoryStorage()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.AppendTurn(turn(fmt.Sprintf("t%d", i), model.RoleUser))
			_ = s.Turns()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
}
