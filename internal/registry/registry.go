// Package registry maps requirement and result type names to factories.
// Registration is explicit and centralized: built-ins are registered at
// startup before any path is loaded, and extensions may append their own
// entries at runtime. Re-registering a name is an error; entries are never
// overwritten or removed.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pathways-mc/pathways/internal/domain"
)

// RequirementFactory builds a requirement from its ordered string options,
// as written in the path configuration. Factories return
// domain.ErrInvalidOptions (wrapped) on malformed options and
// domain.ErrDependencyUnavailable when a required hook is missing.
type RequirementFactory func(options []string) (domain.Requirement, error)

type ResultFactory func(options []string) (domain.Result, error)

type Registry struct {
	mu           sync.RWMutex
	requirements map[string]RequirementFactory
	results      map[string]ResultFactory
}

func New() *Registry {
	return &Registry{
		requirements: make(map[string]RequirementFactory),
		results:      make(map[string]ResultFactory),
	}
}

// Type names are case-insensitive and conventionally written in upper case
// in path files (TIME, PERMISSION, ...).
func normalizeTypeName(typeName string) string {
	return strings.ToUpper(strings.TrimSpace(typeName))
}

func (r *Registry) RegisterRequirement(typeName string, factory RequirementFactory) error {
	if factory == nil {
		return fmt.Errorf("%w: nil factory for requirement type %q", domain.ErrInvalidOptions, typeName)
	}

	name := normalizeTypeName(typeName)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requirements[name]; ok {
		return fmt.Errorf("%w: requirement type %q", domain.ErrDuplicateType, name)
	}
	r.requirements[name] = factory
	return nil
}

func (r *Registry) RegisterResult(typeName string, factory ResultFactory) error {
	if factory == nil {
		return fmt.Errorf("%w: nil factory for result type %q", domain.ErrInvalidOptions, typeName)
	}

	name := normalizeTypeName(typeName)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.results[name]; ok {
		return fmt.Errorf("%w: result type %q", domain.ErrDuplicateType, name)
	}
	r.results[name] = factory
	return nil
}

func (r *Registry) CreateRequirement(typeName string, options []string) (domain.Requirement, error) {
	name := normalizeTypeName(typeName)

	r.mu.RLock()
	factory, ok := r.requirements[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: requirement type %q", domain.ErrUnknownType, name)
	}

	requirement, err := factory(options)
	if err != nil {
		return nil, fmt.Errorf("requirement type %q: %w", name, err)
	}
	return requirement, nil
}

func (r *Registry) CreateResult(typeName string, options []string) (domain.Result, error) {
	name := normalizeTypeName(typeName)

	r.mu.RLock()
	factory, ok := r.results[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: result type %q", domain.ErrUnknownType, name)
	}

	result, err := factory(options)
	if err != nil {
		return nil, fmt.Errorf("result type %q: %w", name, err)
	}
	return result, nil
}

// RequirementTypes returns the registered requirement type names, for
// diagnostics.
func (r *Registry) RequirementTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.requirements))
	for name := range r.requirements {
		names = append(names, name)
	}
	return names
}

func (r *Registry) ResultTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.results))
	for name := range r.results {
		names = append(names, name)
	}
	return names
}
