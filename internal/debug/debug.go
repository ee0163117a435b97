// Package debug assembles a support dump of the running instance: loaded
// paths, registered types, and config warnings. Secrets never appear here.
package debug

import (
	"time"

	"github.com/pathways-mc/pathways/internal/config"
	"github.com/pathways-mc/pathways/internal/pathing"
	"github.com/pathways-mc/pathways/internal/registry"
)

type PathSummary struct {
	Name          string `json:"name"`
	Requirements  int    `json:"requirements"`
	Prerequisites int    `json:"prerequisites"`
	Results       int    `json:"results"`
	Repeatable    bool   `json:"repeatable"`
	AutoActivate  bool   `json:"autoActivate"`
}

type Report struct {
	GeneratedAt      time.Time     `json:"generatedAt"`
	InstanceID       string        `json:"instanceId"`
	Config           string        `json:"config"`
	RequirementTypes []string      `json:"requirementTypes"`
	ResultTypes      []string      `json:"resultTypes"`
	Paths            []PathSummary `json:"paths"`
	ConfigWarnings   []string      `json:"configWarnings,omitempty"`
}

type Reporter struct {
	instanceID     string
	conf           config.Config
	registry       *registry.Registry
	manager        *pathing.Manager
	configWarnings []string
}

func NewReporter(
	instanceID string,
	conf config.Config,
	reg *registry.Registry,
	manager *pathing.Manager,
	configWarnings []string,
) *Reporter {
	return &Reporter{
		instanceID:     instanceID,
		conf:           conf,
		registry:       reg,
		manager:        manager,
		configWarnings: configWarnings,
	}
}

func (r *Reporter) Report() Report {
	paths := r.manager.AllPaths()
	summaries := make([]PathSummary, 0, len(paths))
	for _, path := range paths {
		summaries = append(summaries, PathSummary{
			Name:          path.DisplayName(),
			Requirements:  len(path.Requirements()),
			Prerequisites: len(path.Prerequisites()),
			Results:       len(path.Results()),
			Repeatable:    path.Repeatable(),
			AutoActivate:  path.AutoActivates(),
		})
	}

	return Report{
		GeneratedAt:      time.Now().UTC(),
		InstanceID:       r.instanceID,
		Config:           r.conf.NonSensitiveString(),
		RequirementTypes: r.registry.RequirementTypes(),
		ResultTypes:      r.registry.ResultTypes(),
		Paths:            summaries,
		ConfigWarnings:   r.configWarnings,
	}
}
