package domain

import "time"

type PathStatus string

const (
	StatusInactive  PathStatus = "inactive"
	StatusActive    PathStatus = "active"
	StatusCompleted PathStatus = "completed"
)

// PathProgress is the stored per-(player, path) state. CompletedRequirements
// holds the 0-based indices of requirements recorded as complete during the
// current activation. TimesCompleted is historical and survives
// re-activation of repeatable paths.
type PathProgress struct {
	Status                PathStatus
	CompletedRequirements map[int]bool
	ActivatedAt           time.Time
	TimesCompleted        int
	LastCompletedAt       *time.Time
}

func NewPathProgress() PathProgress {
	return PathProgress{
		Status:                StatusInactive,
		CompletedRequirements: make(map[int]bool),
	}
}

// PlayerPathState holds all per-path progress for one player, keyed by the
// lower-cased path display name. A missing key means the path is inactive
// for the player.
type PlayerPathState struct {
	PlayerUUID string
	Progress   map[string]PathProgress
}

func NewPlayerPathState(playerUUID string) *PlayerPathState {
	return &PlayerPathState{
		PlayerUUID: playerUUID,
		Progress:   make(map[string]PathProgress),
	}
}

// ProgressFor returns the stored progress for the path, defaulting to an
// inactive zero state on a miss.
func (s *PlayerPathState) ProgressFor(pathName string) PathProgress {
	progress, ok := s.Progress[pathName]
	if !ok {
		return NewPathProgress()
	}
	if progress.CompletedRequirements == nil {
		progress.CompletedRequirements = make(map[int]bool)
	}
	return progress
}

func (s *PlayerPathState) SetProgressFor(pathName string, progress PathProgress) {
	if s.Progress == nil {
		s.Progress = make(map[string]PathProgress)
	}
	s.Progress[pathName] = progress
}

func (s *PlayerPathState) ActiveCount() int {
	count := 0
	for _, progress := range s.Progress {
		if progress.Status == StatusActive {
			count++
		}
	}
	return count
}
