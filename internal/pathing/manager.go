package pathing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pathways-mc/pathways/internal/domain"
	"github.com/pathways-mc/pathways/internal/logging"
	"github.com/pathways-mc/pathways/internal/reporting"
)

// StateRepository persists per-player path state. A miss returns an empty
// state, never an error; eventual consistency is acceptable.
type StateRepository interface {
	LoadPlayerPathState(ctx context.Context, playerUUID string) (*domain.PlayerPathState, error)
	SavePlayerPathState(ctx context.Context, state *domain.PlayerPathState) error
}

type ActivateOptions struct {
	// Force is the administrative override: it bypasses prerequisite
	// checks and the concurrent-path limit. It does not re-open a
	// completed one-time path.
	Force bool
}

// Manager owns all configured paths and every per-player activation state.
// All state mutation goes through its transition methods, which serialize
// per player. Paths themselves are registered once at startup and immutable
// afterwards.
type Manager struct {
	paths  []*Path
	byName map[string]*Path

	repo           StateRepository
	maxActivePaths int
	nowFunc        func() time.Time

	playerLocks *keyedMutex

	statesMu sync.Mutex
	states   map[string]*domain.PlayerPathState
}

func NewManager(repo StateRepository, maxActivePaths int, nowFunc func() time.Time) *Manager {
	return &Manager{
		byName:         make(map[string]*Path),
		repo:           repo,
		maxActivePaths: maxActivePaths,
		nowFunc:        nowFunc,
		playerLocks:    newKeyedMutex(),
		states:         make(map[string]*domain.PlayerPathState),
	}
}

// AddPath registers a path. Display names are unique case-insensitively.
// Called at configuration load, before any evaluation runs.
func (m *Manager) AddPath(path *Path) error {
	name := path.InternalName()
	if _, ok := m.byName[name]; ok {
		return fmt.Errorf("duplicate path name %q", path.DisplayName())
	}
	m.byName[name] = path
	m.paths = append(m.paths, path)
	return nil
}

// AllPaths returns every path in registration order.
func (m *Manager) AllPaths() []*Path {
	return append([]*Path{}, m.paths...)
}

func (m *Manager) FindPathByDisplayName(name string, exact bool) *Path {
	for _, path := range m.paths {
		if path.Matches(name, exact) {
			return path
		}
	}
	return nil
}

// state returns the player's state, loading it from the repository on first
// access. A repository miss yields an empty state (all paths inactive).
func (m *Manager) state(ctx context.Context, playerUUID string) (*domain.PlayerPathState, error) {
	m.statesMu.Lock()
	cached, ok := m.states[playerUUID]
	m.statesMu.Unlock()
	if ok {
		return cached, nil
	}

	loaded, err := m.repo.LoadPlayerPathState(ctx, playerUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load path state: %w", err)
	}
	if loaded == nil {
		loaded = domain.NewPlayerPathState(playerUUID)
	}

	m.statesMu.Lock()
	// Another goroutine may have loaded concurrently; keep the first.
	if cached, ok := m.states[playerUUID]; ok {
		m.statesMu.Unlock()
		return cached, nil
	}
	m.states[playerUUID] = loaded
	m.statesMu.Unlock()
	return loaded, nil
}

func (m *Manager) persist(ctx context.Context, state *domain.PlayerPathState) error {
	if err := m.repo.SavePlayerPathState(ctx, state); err != nil {
		err = fmt.Errorf("failed to persist path state: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"playerUUID": state.PlayerUUID,
		})
		return err
	}
	return nil
}

// ActivePaths returns the player's active paths in registration order.
func (m *Manager) ActivePaths(ctx context.Context, playerUUID string) ([]*Path, error) {
	unlock := m.playerLocks.Lock(playerUUID)
	defer unlock()

	state, err := m.state(ctx, playerUUID)
	if err != nil {
		return nil, err
	}

	var active []*Path
	for _, path := range m.paths {
		if state.ProgressFor(path.InternalName()).Status == domain.StatusActive {
			active = append(active, path)
		}
	}
	return active, nil
}

// VisiblePaths returns the paths a player may see in listings: every path,
// minus those hidden behind unmet prerequisites.
func (m *Manager) VisiblePaths(ctx context.Context, playerUUID string) []*Path {
	var visible []*Path
	for _, path := range m.paths {
		if path.OnlyShowIfPrerequisitesMet() && !path.MeetsPrerequisites(ctx, playerUUID) {
			continue
		}
		visible = append(visible, path)
	}
	return visible
}

// ActivatePath transitions the path INACTIVE -> ACTIVE for the player, or
// COMPLETED -> ACTIVE for repeatable paths. Re-activation resets the
// per-requirement progress but keeps the completion history.
func (m *Manager) ActivatePath(ctx context.Context, playerUUID string, path *Path, opts ActivateOptions) error {
	unlock := m.playerLocks.Lock(playerUUID)
	defer unlock()

	state, err := m.state(ctx, playerUUID)
	if err != nil {
		return err
	}

	progress := state.ProgressFor(path.InternalName())

	switch progress.Status {
	case domain.StatusActive:
		return domain.ErrPathAlreadyActive
	case domain.StatusCompleted:
		if !path.Repeatable() {
			return domain.ErrPathAlreadyCompleted
		}
	}

	if !opts.Force {
		if state.ActiveCount() >= m.maxActivePaths {
			return domain.ErrTooManyActivePaths
		}
		if !path.MeetsPrerequisites(ctx, playerUUID) {
			return domain.ErrPrerequisitesNotMet
		}
	}

	progress.Status = domain.StatusActive
	progress.ActivatedAt = m.nowFunc()
	progress.CompletedRequirements = make(map[int]bool)
	state.SetProgressFor(path.InternalName(), progress)

	logging.FromContext(ctx).Info(
		"Activated path",
		"playerUUID", playerUUID,
		"path", path.DisplayName(),
		"forced", opts.Force,
	)

	return m.persist(ctx, state)
}

// AutoActivate activates every auto-activating path the player is eligible
// for. Called at the start of an evaluation pass. Hitting the active-path
// limit stops further activations silently; other failures are logged.
func (m *Manager) AutoActivate(ctx context.Context, playerUUID string) []*Path {
	var activated []*Path
	for _, path := range m.paths {
		if !path.AutoActivates() {
			continue
		}

		err := m.ActivatePath(ctx, playerUUID, path, ActivateOptions{})
		switch {
		case err == nil:
			activated = append(activated, path)
		case errors.Is(err, domain.ErrPathAlreadyActive),
			errors.Is(err, domain.ErrPathAlreadyCompleted),
			errors.Is(err, domain.ErrPrerequisitesNotMet):
			// Not eligible right now; nothing to do.
		case errors.Is(err, domain.ErrTooManyActivePaths):
			return activated
		default:
			logging.FromContext(ctx).Warn(
				"Failed to auto-activate path",
				"playerUUID", playerUUID,
				"path", path.DisplayName(),
				"error", err.Error(),
			)
		}
	}
	return activated
}

// HasCompletedRequirement reports whether the requirement at index was
// recorded complete during the current activation. This is a lookup against
// stored state, never a live re-evaluation: a recorded completion stands
// even if the underlying stat has since regressed.
func (m *Manager) HasCompletedRequirement(ctx context.Context, playerUUID string, path *Path, index int) (bool, error) {
	unlock := m.playerLocks.Lock(playerUUID)
	defer unlock()

	state, err := m.state(ctx, playerUUID)
	if err != nil {
		return false, err
	}
	return state.ProgressFor(path.InternalName()).CompletedRequirements[index], nil
}

// CompleteRequirement records the requirement at index as complete.
// Recording an already-complete index is a no-op.
func (m *Manager) CompleteRequirement(ctx context.Context, playerUUID string, path *Path, index int) error {
	unlock := m.playerLocks.Lock(playerUUID)
	defer unlock()

	state, err := m.state(ctx, playerUUID)
	if err != nil {
		return err
	}

	progress := state.ProgressFor(path.InternalName())
	if progress.Status != domain.StatusActive {
		return domain.ErrPathNotActive
	}
	if progress.CompletedRequirements[index] {
		return nil
	}

	progress.CompletedRequirements[index] = true
	state.SetProgressFor(path.InternalName(), progress)
	return m.persist(ctx, state)
}

// CompletePath transitions ACTIVE -> COMPLETED. Returns whether the
// transition happened: false means the path was not active, so the caller
// must not fire results. The atomicity of this check-and-set under the
// player lock is what makes result firing at-most-once.
func (m *Manager) CompletePath(ctx context.Context, playerUUID string, path *Path) (bool, error) {
	unlock := m.playerLocks.Lock(playerUUID)
	defer unlock()

	state, err := m.state(ctx, playerUUID)
	if err != nil {
		return false, err
	}

	progress := state.ProgressFor(path.InternalName())
	if progress.Status != domain.StatusActive {
		return false, nil
	}

	now := m.nowFunc()
	progress.Status = domain.StatusCompleted
	progress.TimesCompleted++
	progress.LastCompletedAt = &now
	state.SetProgressFor(path.InternalName(), progress)

	logging.FromContext(ctx).Info(
		"Path completed",
		"playerUUID", playerUUID,
		"path", path.DisplayName(),
		"timesCompleted", progress.TimesCompleted,
	)

	return true, m.persist(ctx, state)
}

// ResetPlayer discards all of the player's path state. Administrative
// operation; state is never reset implicitly.
func (m *Manager) ResetPlayer(ctx context.Context, playerUUID string) error {
	unlock := m.playerLocks.Lock(playerUUID)
	defer unlock()

	state := domain.NewPlayerPathState(playerUUID)

	m.statesMu.Lock()
	m.states[playerUUID] = state
	m.statesMu.Unlock()

	return m.persist(ctx, state)
}

// ProgressFor returns a copy of the stored progress for diagnostics and
// presentation.
func (m *Manager) ProgressFor(ctx context.Context, playerUUID string, path *Path) (domain.PathProgress, error) {
	unlock := m.playerLocks.Lock(playerUUID)
	defer unlock()

	state, err := m.state(ctx, playerUUID)
	if err != nil {
		return domain.PathProgress{}, err
	}
	return state.ProgressFor(path.InternalName()), nil
}
