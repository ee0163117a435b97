package domain

import "errors"

var (
	ErrUnknownType           = errors.New("unknown requirement or result type")
	ErrDuplicateType         = errors.New("type name already registered")
	ErrInvalidOptions        = errors.New("invalid options")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrPathNotFound         = errors.New("no path found with that name")
	ErrPathNotActive        = errors.New("path is not active")
	ErrPathAlreadyActive    = errors.New("path is already active")
	ErrPathAlreadyCompleted = errors.New("path is already completed")
	ErrPrerequisitesNotMet  = errors.New("prerequisites not met")
	ErrTooManyActivePaths   = errors.New("too many active paths")
)
