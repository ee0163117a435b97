// Package pathconfig loads path definitions from a YAML file and builds the
// runtime paths through the type registry.
//
// Loading is permissive: a broken definition disables the smallest possible
// unit (an alternative, a composite, or a whole path) and records a warning
// instead of failing the full load. An empty server is worse than a server
// with one path missing.
package pathconfig

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pathways-mc/pathways/internal/domain"
	"github.com/pathways-mc/pathways/internal/logging"
	"github.com/pathways-mc/pathways/internal/pathing"
	"github.com/pathways-mc/pathways/internal/registry"
	"github.com/pathways-mc/pathways/internal/requirement"
)

type yamlFile struct {
	Paths []yamlPath `yaml:"paths"`
}

type yamlPath struct {
	Name          string            `yaml:"name"`
	Repeatable    bool              `yaml:"repeatable"`
	AutoActivate  bool              `yaml:"auto_activate"`
	OnlyShowIfMet bool              `yaml:"only_show_if_prerequisites_met"`
	Prerequisites []yamlRequirement `yaml:"prerequisites"`
	Requirements  []yamlRequirement `yaml:"requirements"`
	Results       []yamlResult      `yaml:"results"`
}

// yamlRequirement is one composite. The common single-alternative case may
// inline type/options directly instead of nesting them under alternatives.
type yamlRequirement struct {
	Type         string            `yaml:"type"`
	Options      []string          `yaml:"options"`
	Alternatives []yamlAlternative `yaml:"alternatives"`
	World        string            `yaml:"world"`
	AutoComplete bool              `yaml:"auto_complete"`
}

type yamlAlternative struct {
	Type    string   `yaml:"type"`
	Options []string `yaml:"options"`
}

type yamlResult struct {
	Type    string   `yaml:"type"`
	Options []string `yaml:"options"`
}

// LoadResult is the outcome of one load: the usable paths plus every warning
// recorded while building them.
type LoadResult struct {
	Paths    []*pathing.Path
	Warnings []string
}

type loader struct {
	registry *registry.Registry
	worldOf  pathing.WorldResolver

	warnings []string
	// Missing hook dependencies warn once per load, not once per use.
	unavailableWarned map[string]bool
}

// LoadFile reads and builds the path definitions from the file.
func LoadFile(ctx context.Context, filePath string, reg *registry.Registry, worldOf pathing.WorldResolver) (LoadResult, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return LoadResult{}, fmt.Errorf("failed to read path config %s: %w", filePath, err)
	}
	return Load(ctx, data, reg, worldOf)
}

// Load builds the path definitions from raw YAML.
func Load(ctx context.Context, data []byte, reg *registry.Registry, worldOf pathing.WorldResolver) (LoadResult, error) {
	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return LoadResult{}, fmt.Errorf("failed to parse path config: %w", err)
	}

	l := &loader{
		registry:          reg,
		worldOf:           worldOf,
		unavailableWarned: make(map[string]bool),
	}

	var paths []*pathing.Path
	seen := make(map[string]bool)
	for _, definition := range file.Paths {
		path := l.buildPath(ctx, definition)
		if path == nil {
			continue
		}
		if seen[path.InternalName()] {
			l.warnf("path '%s': duplicate name, keeping the first definition", definition.Name)
			continue
		}
		seen[path.InternalName()] = true
		paths = append(paths, path)
	}

	for _, warning := range l.warnings {
		logging.FromContext(ctx).WarnContext(ctx, "Path config warning", "warning", warning)
	}

	return LoadResult{Paths: paths, Warnings: l.warnings}, nil
}

func (l *loader) warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *loader) buildPath(ctx context.Context, definition yamlPath) *pathing.Path {
	if definition.Name == "" {
		l.warnf("skipping path without a name")
		return nil
	}

	prerequisites, ok := l.buildComposites(definition.Name, "prerequisite", definition.Prerequisites)
	if !ok {
		return nil
	}

	requirements, ok := l.buildComposites(definition.Name, "requirement", definition.Requirements)
	if !ok {
		return nil
	}

	var results []domain.Result
	for position, resultDefinition := range definition.Results {
		result, err := l.registry.CreateResult(resultDefinition.Type, resultDefinition.Options)
		if err != nil {
			// A path whose reward can't fire shouldn't be completable at all.
			l.warnf("path '%s': result %d (%s): %s; skipping path", definition.Name, position+1, resultDefinition.Type, err)
			return nil
		}
		results = append(results, result)
	}

	path, err := pathing.NewPath(
		definition.Name,
		prerequisites,
		requirements,
		results,
		pathing.PathFlags{
			OnlyShowIfPrerequisitesMet: definition.OnlyShowIfMet,
			Repeatable:                 definition.Repeatable,
			AutoActivate:               definition.AutoActivate,
		},
	)
	if err != nil {
		l.warnf("path '%s': %s; skipping path", definition.Name, err)
		return nil
	}
	return path
}

func (l *loader) buildComposites(pathName, kind string, definitions []yamlRequirement) ([]*pathing.CompositeRequirement, bool) {
	composites := make([]*pathing.CompositeRequirement, 0, len(definitions))
	for index, definition := range definitions {
		alternativeDefinitions := definition.Alternatives
		if definition.Type != "" {
			alternativeDefinitions = append([]yamlAlternative{{
				Type:    definition.Type,
				Options: definition.Options,
			}}, alternativeDefinitions...)
		}

		var alternatives []domain.Requirement
		for _, alternativeDefinition := range alternativeDefinitions {
			built, ok := l.buildAlternative(pathName, kind, index, alternativeDefinition)
			if !ok {
				continue
			}
			alternatives = append(alternatives, built)
		}

		if len(alternatives) == 0 && len(alternativeDefinitions) > 0 && !definition.AutoComplete {
			// Every alternative was disabled, so the composite can never be
			// satisfied and the path can never complete.
			l.warnf("path '%s': %s %d has no usable alternatives; skipping path", pathName, kind, index+1)
			return nil, false
		}

		composite, err := pathing.NewCompositeRequirement(index, alternatives, pathing.CompositeOptions{
			World:        definition.World,
			AutoComplete: definition.AutoComplete,
			WorldOf:      l.worldOf,
		})
		if err != nil {
			l.warnf("path '%s': %s %d: %s; skipping path", pathName, kind, index+1, err)
			return nil, false
		}
		composites = append(composites, composite)
	}
	return composites, true
}

func (l *loader) buildAlternative(pathName, kind string, index int, definition yamlAlternative) (domain.Requirement, bool) {
	built, err := l.registry.CreateRequirement(definition.Type, definition.Options)
	if err == nil {
		return built, true
	}

	if errors.Is(err, domain.ErrDependencyUnavailable) {
		// The type exists but its server hook is missing. The path keeps its
		// shape with a placeholder that never satisfies, so progress isn't
		// handed out for a check we can't perform.
		if !l.unavailableWarned[definition.Type] {
			l.unavailableWarned[definition.Type] = true
			l.warnf("requirement type %s is unavailable on this server; affected requirements will never be satisfied", definition.Type)
		}
		return requirement.Unavailable(definition.Type), true
	}

	l.warnf("path '%s': %s %d (%s): %s; alternative disabled", pathName, kind, index+1, definition.Type, err)
	return nil, false
}
