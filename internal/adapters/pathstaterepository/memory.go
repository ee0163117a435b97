package pathstaterepository

import (
	"context"
	"sync"

	"github.com/pathways-mc/pathways/internal/domain"
)

// InMemory keeps path state in process memory. Used in development when no
// database is available; state is lost on restart.
type InMemory struct {
	mutex  sync.Mutex
	states map[string]*domain.PlayerPathState
}

func NewInMemory() *InMemory {
	return &InMemory{
		states: make(map[string]*domain.PlayerPathState),
	}
}

func (r *InMemory) LoadPlayerPathState(ctx context.Context, playerUUID string) (*domain.PlayerPathState, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored, ok := r.states[playerUUID]
	if !ok {
		return nil, nil
	}
	return clone(stored), nil
}

func (r *InMemory) SavePlayerPathState(ctx context.Context, state *domain.PlayerPathState) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.states[state.PlayerUUID] = clone(state)
	return nil
}

// clone deep-copies so callers can't mutate stored state through shared maps.
func clone(state *domain.PlayerPathState) *domain.PlayerPathState {
	copied := domain.NewPlayerPathState(state.PlayerUUID)
	for pathName, progress := range state.Progress {
		completed := make(map[int]bool, len(progress.CompletedRequirements))
		for index, done := range progress.CompletedRequirements {
			completed[index] = done
		}
		progress.CompletedRequirements = completed
		copied.SetProgressFor(pathName, progress)
	}
	return copied
}
