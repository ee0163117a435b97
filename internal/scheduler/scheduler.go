// Package scheduler drives the periodic work: playtime accrual for online
// players and evaluation passes over their active paths.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pathways-mc/pathways/internal/checker"
	"github.com/pathways-mc/pathways/internal/domain"
	"github.com/pathways-mc/pathways/internal/logging"
	"github.com/pathways-mc/pathways/internal/playtime"
	"github.com/pathways-mc/pathways/internal/reporting"
	"github.com/pathways-mc/pathways/internal/strutils"
)

const defaultWorkerCount = 8

type OnlinePlayersProvider interface {
	OnlinePlayers(ctx context.Context) ([]string, error)
}

type PlayerEvaluator interface {
	Evaluate(ctx context.Context, playerUUID string) (checker.EvaluationReport, error)
}

type schedulerMetricsCollection struct {
	tickCount   metric.Int64Counter
	playerCount metric.Int64Counter
}

func setupSchedulerMetrics(meter metric.Meter) (schedulerMetricsCollection, error) {
	tickCount, err := meter.Int64Counter("scheduler/tick_count")
	if err != nil {
		return schedulerMetricsCollection{}, fmt.Errorf("failed to create tick count metric: %w", err)
	}

	playerCount, err := meter.Int64Counter("scheduler/evaluated_player_count")
	if err != nil {
		return schedulerMetricsCollection{}, fmt.Errorf("failed to create player count metric: %w", err)
	}

	return schedulerMetricsCollection{
		tickCount:   tickCount,
		playerCount: playerCount,
	}, nil
}

type Scheduler struct {
	online    OnlinePlayersProvider
	playTimes *playtime.Manager
	evaluator PlayerEvaluator
	interval  time.Duration
	workers   int
	nowFunc   func() time.Time

	// lastTick marks the previous pass for bucket rollover detection. Held
	// in memory only; the first tick after a restart records the baseline
	// without resetting anything.
	lastTick time.Time

	metrics schedulerMetricsCollection
}

func New(
	online OnlinePlayersProvider,
	playTimes *playtime.Manager,
	evaluator PlayerEvaluator,
	interval time.Duration,
	nowFunc func() time.Time,
) (*Scheduler, error) {
	if interval < time.Minute {
		return nil, fmt.Errorf("check interval must be at least a minute, got %s", interval)
	}

	meter := otel.Meter("pathways/scheduler")
	metrics, err := setupSchedulerMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return &Scheduler{
		online:    online,
		playTimes: playTimes,
		evaluator: evaluator,
		interval:  interval,
		workers:   defaultWorkerCount,
		nowFunc:   nowFunc,
		metrics:   metrics,
	}, nil
}

// Run ticks until the context is cancelled. The first pass happens after one
// full interval so playtime isn't credited for time not yet played.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logging.FromContext(ctx).InfoContext(ctx, "Scheduler started", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			logging.FromContext(ctx).InfoContext(ctx, "Scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single accrual and evaluation pass, rolling over any
// playtime bucket whose period boundary passed since the previous pass.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.rolloverBuckets(ctx, s.nowFunc())

	online, err := s.online.OnlinePlayers(ctx)
	if err != nil {
		// The bridge may be briefly unreachable; skip the tick rather than
		// credit or evaluate against stale data.
		reporting.Report(ctx, fmt.Errorf("failed to list online players: %w", err))
		s.metrics.tickCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", false)))
		return
	}

	players := make([]string, 0, len(online))
	for _, raw := range online {
		normalized, err := strutils.NormalizeUUID(raw)
		if err != nil {
			reporting.Report(ctx, fmt.Errorf("bridge returned invalid player uuid: %w", err))
			continue
		}
		players = append(players, normalized)
	}

	if len(players) > 0 {
		minutes := int(s.interval.Minutes())
		if err := s.playTimes.RecordOnlineMinutes(ctx, players, minutes); err != nil {
			// Already reported; evaluation still runs on whatever accrued.
			logging.FromContext(ctx).WarnContext(ctx, "Playtime accrual failed for some players", "error", err.Error())
		}
	}

	s.evaluateAll(ctx, players)

	s.metrics.tickCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", true)))
	s.metrics.playerCount.Add(ctx, int64(len(players)))
}

func (s *Scheduler) rolloverBuckets(ctx context.Context, now time.Time) {
	previous := s.lastTick
	s.lastTick = now
	if previous.IsZero() {
		return
	}

	expired := make([]domain.TimeBucket, 0, 3)
	if dayOf(previous) != dayOf(now) {
		expired = append(expired, domain.BucketDaily)
	}
	if weekOf(previous) != weekOf(now) {
		expired = append(expired, domain.BucketWeekly)
	}
	if monthOf(previous) != monthOf(now) {
		expired = append(expired, domain.BucketMonthly)
	}

	for _, bucket := range expired {
		logging.FromContext(ctx).InfoContext(ctx, "Rolling over playtime bucket", "bucket", string(bucket))
		if err := s.playTimes.ResetBucket(ctx, bucket); err != nil {
			reporting.Report(ctx, fmt.Errorf("failed to roll over bucket %s: %w", bucket, err))
		}
	}
}

func dayOf(t time.Time) string {
	return t.Format(time.DateOnly)
}

func weekOf(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-%02d", year, week)
}

func monthOf(t time.Time) string {
	return t.Format("2006-01")
}

func (s *Scheduler) evaluateAll(ctx context.Context, players []string) {
	queue := make(chan string)
	var waitGroup sync.WaitGroup

	for range s.workers {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			for playerUUID := range queue {
				if _, err := s.evaluator.Evaluate(ctx, playerUUID); err != nil {
					reporting.Report(ctx, fmt.Errorf("evaluation pass failed: %w", err), map[string]string{
						"uuid": playerUUID,
					})
				}
			}
		}()
	}

	for _, playerUUID := range players {
		select {
		case <-ctx.Done():
			close(queue)
			waitGroup.Wait()
			return
		case queue <- playerUUID:
		}
	}
	close(queue)
	waitGroup.Wait()
}
