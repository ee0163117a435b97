package ports

import (
	"github.com/pathways-mc/pathways/internal/checker"
	"github.com/pathways-mc/pathways/internal/pathing"
)

type requirementResponse struct {
	CompletionID int    `json:"completionId"`
	Description  string `json:"description"`
	Progress     string `json:"progress,omitempty"`
	Completed    bool   `json:"completed"`
	Skipped      bool   `json:"skipped,omitempty"`
	AutoComplete bool   `json:"autoComplete,omitempty"`
	World        string `json:"world,omitempty"`
}

type pathResponse struct {
	Name                       string                `json:"name"`
	Repeatable                 bool                  `json:"repeatable"`
	AutoActivate               bool                  `json:"autoActivate"`
	OnlyShowIfPrerequisitesMet bool                  `json:"onlyShowIfPrerequisitesMet"`
	Prerequisites              []string              `json:"prerequisites,omitempty"`
	Requirements               []requirementResponse `json:"requirements"`
	Results                    []string              `json:"results,omitempty"`
}

func pathToResponse(path *pathing.Path) pathResponse {
	prerequisites := make([]string, 0, len(path.Prerequisites()))
	for _, prerequisite := range path.Prerequisites() {
		prerequisites = append(prerequisites, prerequisite.Description())
	}

	requirements := make([]requirementResponse, 0, len(path.Requirements()))
	for _, composite := range path.Requirements() {
		requirements = append(requirements, requirementResponse{
			CompletionID: composite.CompletionID(),
			Description:  composite.Description(),
			AutoComplete: composite.AutoCompletes(),
			World:        composite.World(),
		})
	}

	return pathResponse{
		Name:                       path.DisplayName(),
		Repeatable:                 path.Repeatable(),
		AutoActivate:               path.AutoActivates(),
		OnlyShowIfPrerequisitesMet: path.OnlyShowIfPrerequisitesMet(),
		Prerequisites:              prerequisites,
		Requirements:               requirements,
		Results:                    checker.FormatResults(path),
	}
}

func requirementViewsToResponse(views []checker.RequirementView) []requirementResponse {
	requirements := make([]requirementResponse, 0, len(views))
	for _, view := range views {
		requirements = append(requirements, requirementResponse{
			CompletionID: view.CompletionID,
			Description:  view.Description,
			Progress:     view.Progress,
			Completed:    view.Completed,
			Skipped:      view.Skipped,
			AutoComplete: view.AutoComplete,
			World:        view.World,
		})
	}
	return requirements
}
