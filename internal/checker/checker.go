package checker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pathways-mc/pathways/internal/logging"
	"github.com/pathways-mc/pathways/internal/pathing"
	"github.com/pathways-mc/pathways/internal/reporting"
)

type checkerMetricsCollection struct {
	evaluationCount     metric.Int64Counter
	requirementCount    metric.Int64Counter
	completedPathCount  metric.Int64Counter
	executedResultCount metric.Int64Counter
}

func setupCheckerMetrics(meter metric.Meter) (checkerMetricsCollection, error) {
	evaluationCount, err := meter.Int64Counter("checker/evaluation_count")
	if err != nil {
		return checkerMetricsCollection{}, fmt.Errorf("failed to create evaluation count metric: %w", err)
	}

	requirementCount, err := meter.Int64Counter("checker/completed_requirement_count")
	if err != nil {
		return checkerMetricsCollection{}, fmt.Errorf("failed to create requirement count metric: %w", err)
	}

	completedPathCount, err := meter.Int64Counter("checker/completed_path_count")
	if err != nil {
		return checkerMetricsCollection{}, fmt.Errorf("failed to create completed path count metric: %w", err)
	}

	executedResultCount, err := meter.Int64Counter("checker/executed_result_count")
	if err != nil {
		return checkerMetricsCollection{}, fmt.Errorf("failed to create executed result count metric: %w", err)
	}

	return checkerMetricsCollection{
		evaluationCount:     evaluationCount,
		requirementCount:    requirementCount,
		completedPathCount:  completedPathCount,
		executedResultCount: executedResultCount,
	}, nil
}

// PathEvaluation describes what a single evaluation pass did to one active path.
type PathEvaluation struct {
	Path *pathing.Path
	// NewlyCompleted holds the completion ids recorded during this pass, in order.
	NewlyCompleted []int
	// Completed is true iff this pass transitioned the path to completed.
	// Result execution happens at most once per completion, so a second pass
	// over an already completed path reports false here.
	Completed bool
}

// EvaluationReport summarizes a full evaluation pass for one player.
type EvaluationReport struct {
	PlayerUUID string
	// Activated lists paths auto-activated at the start of the pass.
	Activated []*pathing.Path
	Paths     []PathEvaluation
}

// Checker runs evaluation passes over a player's active paths. Passes for the
// same player are serialized so that concurrent checks cannot double-fire
// results or record requirements out of order.
type Checker struct {
	manager *pathing.Manager

	metrics checkerMetricsCollection

	mutexes sync.Map
}

func NewChecker(manager *pathing.Manager) (*Checker, error) {
	meter := otel.Meter("pathways/checker")

	metrics, err := setupCheckerMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return &Checker{
		manager: manager,
		metrics: metrics,
	}, nil
}

func (c *Checker) lockPlayer(playerUUID string) func() {
	value, _ := c.mutexes.LoadOrStore(playerUUID, &sync.Mutex{})
	mutex := value.(*sync.Mutex)
	mutex.Lock()
	return mutex.Unlock
}

// Evaluate runs one full evaluation pass for the player: auto-activates any
// eligible paths, then walks each active path's requirements in order,
// recording newly satisfied ones and completing paths whose requirements are
// all met. Results of a completed path are executed exactly once.
func (c *Checker) Evaluate(ctx context.Context, playerUUID string) (EvaluationReport, error) {
	unlock := c.lockPlayer(playerUUID)
	defer unlock()

	report := EvaluationReport{PlayerUUID: playerUUID}

	report.Activated = c.manager.AutoActivate(ctx, playerUUID)

	active, err := c.manager.ActivePaths(ctx, playerUUID)
	if err != nil {
		return EvaluationReport{}, fmt.Errorf("failed to get active paths: %w", err)
	}

	for _, path := range active {
		evaluation, err := c.evaluatePath(ctx, playerUUID, path)
		if err != nil {
			return EvaluationReport{}, fmt.Errorf("failed to evaluate path %s: %w", path.DisplayName(), err)
		}
		report.Paths = append(report.Paths, evaluation)
	}

	c.metrics.evaluationCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Int("active_paths", len(active)),
			attribute.Int("activated_paths", len(report.Activated)),
		),
	)

	return report, nil
}

func (c *Checker) evaluatePath(ctx context.Context, playerUUID string, path *pathing.Path) (PathEvaluation, error) {
	evaluation := PathEvaluation{Path: path}

	// A requirement only counts as reached once every earlier requirement is
	// done, so a player can't skip ahead in an ordered path. Auto-completing
	// requirements are exempt and are recorded whenever they hold.
	frontIntact := true
	allComplete := true

	for _, composite := range path.Requirements() {
		done, err := c.manager.HasCompletedRequirement(ctx, playerUUID, path, composite.Index())
		if err != nil {
			return PathEvaluation{}, fmt.Errorf("failed to look up requirement state: %w", err)
		}
		if done {
			continue
		}

		applicable, err := composite.Applicable(ctx, playerUUID)
		if err != nil {
			reporting.Report(ctx, fmt.Errorf("failed to determine requirement applicability: %w", err), map[string]string{
				"path":          path.DisplayName(),
				"completion_id": fmt.Sprint(composite.CompletionID()),
			})
			applicable = false
		}
		if !applicable {
			// Out of scope for the player's current world. Not a failure, but
			// later requirements can't be reached past it.
			frontIntact = false
			allComplete = false
			continue
		}

		if !frontIntact && !composite.AutoCompletes() {
			allComplete = false
			continue
		}

		satisfied := c.satisfied(ctx, playerUUID, path, composite)
		if !satisfied {
			frontIntact = false
			allComplete = false
			continue
		}

		if err := c.manager.CompleteRequirement(ctx, playerUUID, path, composite.Index()); err != nil {
			return PathEvaluation{}, fmt.Errorf("failed to record completed requirement: %w", err)
		}
		evaluation.NewlyCompleted = append(evaluation.NewlyCompleted, composite.CompletionID())

		c.metrics.requirementCount.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("path", path.InternalName()),
				attribute.Bool("auto_complete", composite.AutoCompletes()),
			),
		)
	}

	if !allComplete {
		return evaluation, nil
	}

	didTransition, err := c.manager.CompletePath(ctx, playerUUID, path)
	if err != nil {
		return PathEvaluation{}, fmt.Errorf("failed to complete path: %w", err)
	}
	if !didTransition {
		return evaluation, nil
	}

	evaluation.Completed = true
	c.metrics.completedPathCount.Add(ctx, 1,
		metric.WithAttributes(attribute.String("path", path.InternalName())),
	)

	if err := c.executeResults(ctx, playerUUID, path); err != nil {
		// The completion already stuck, so failed results are reported rather
		// than rolled back.
		reporting.Report(ctx, fmt.Errorf("failed to execute results: %w", err), map[string]string{
			"path": path.DisplayName(),
		})
	}

	return evaluation, nil
}

// satisfied evaluates a single composite. A panicking or erroring requirement
// is reported and treated as unsatisfied so that one broken integration can't
// take down the whole pass.
func (c *Checker) satisfied(ctx context.Context, playerUUID string, path *pathing.Path, composite *pathing.CompositeRequirement) (satisfied bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			reporting.Report(ctx, fmt.Errorf("requirement panicked: %v", recovered), map[string]string{
				"path":          path.DisplayName(),
				"completion_id": fmt.Sprint(composite.CompletionID()),
			})
			satisfied = false
		}
	}()

	satisfied, err := composite.Satisfied(ctx, playerUUID)
	if err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "Requirement evaluation failed",
			"path", path.DisplayName(),
			"completionID", composite.CompletionID(),
			"error", err.Error(),
		)
		return false
	}
	return satisfied
}

func (c *Checker) executeResults(ctx context.Context, playerUUID string, path *pathing.Path) error {
	var errs []error
	for _, result := range path.Results() {
		err := c.executeResult(ctx, playerUUID, result.Execute)

		c.metrics.executedResultCount.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("path", path.InternalName()),
				attribute.Bool("success", err == nil),
			),
		)

		if err != nil {
			// Remaining results still run.
			errs = append(errs, fmt.Errorf("%s: %w", result.Description(), err))
		}
	}
	return errors.Join(errs...)
}

func (c *Checker) executeResult(ctx context.Context, playerUUID string, execute func(ctx context.Context, playerUUID string) error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("result panicked: %v", recovered)
		}
	}()
	return execute(ctx, playerUUID)
}
