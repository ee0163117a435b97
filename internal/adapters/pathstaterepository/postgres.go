// Package pathstaterepository persists per-player path progress.
package pathstaterepository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/pathways-mc/pathways/internal/adapters/database"
	"github.com/pathways-mc/pathways/internal/config"
	"github.com/pathways-mc/pathways/internal/domain"
	"github.com/pathways-mc/pathways/internal/pathing"
	"github.com/pathways-mc/pathways/internal/reporting"
)

type Postgres struct {
	db      *sqlx.DB
	schema  string
	tracer  trace.Tracer
	nowFunc func() time.Time
}

func NewPostgres(db *sqlx.DB, schema string, nowFunc func() time.Time) *Postgres {
	tracer := otel.Tracer("pathways/pathstaterepository/postgres")
	return &Postgres{
		db:      db,
		schema:  schema,
		tracer:  tracer,
		nowFunc: nowFunc,
	}
}

type dbPathState struct {
	PlayerUUID string          `db:"player_uuid"`
	PathName   string          `db:"path_name"`
	State      json.RawMessage `db:"state"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

// pathProgressStorage is the jsonb payload of one path_state row.
// CompletedRequirements is a sorted index list rather than a map to keep the
// stored payload deterministic.
type pathProgressStorage struct {
	Status                string     `json:"status"`
	CompletedRequirements []int      `json:"completedRequirements"`
	ActivatedAt           time.Time  `json:"activatedAt"`
	TimesCompleted        int        `json:"timesCompleted"`
	LastCompletedAt       *time.Time `json:"lastCompletedAt,omitempty"`
}

func progressToStorage(progress domain.PathProgress) pathProgressStorage {
	completed := make([]int, 0, len(progress.CompletedRequirements))
	for index, done := range progress.CompletedRequirements {
		if done {
			completed = append(completed, index)
		}
	}
	sort.Ints(completed)

	return pathProgressStorage{
		Status:                string(progress.Status),
		CompletedRequirements: completed,
		ActivatedAt:           progress.ActivatedAt,
		TimesCompleted:        progress.TimesCompleted,
		LastCompletedAt:       progress.LastCompletedAt,
	}
}

func progressFromStorage(storage pathProgressStorage) domain.PathProgress {
	completed := make(map[int]bool, len(storage.CompletedRequirements))
	for _, index := range storage.CompletedRequirements {
		completed[index] = true
	}

	return domain.PathProgress{
		Status:                domain.PathStatus(storage.Status),
		CompletedRequirements: completed,
		ActivatedAt:           storage.ActivatedAt,
		TimesCompleted:        storage.TimesCompleted,
		LastCompletedAt:       storage.LastCompletedAt,
	}
}

// LoadPlayerPathState reads every stored row for the player. A player with no
// rows returns nil so the caller can initialize a fresh state.
func (p *Postgres) LoadPlayerPathState(ctx context.Context, playerUUID string) (*domain.PlayerPathState, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.LoadPlayerPathState")
	defer span.End()

	var rows []dbPathState
	err := p.db.SelectContext(
		ctx,
		&rows,
		fmt.Sprintf(`SELECT player_uuid, path_name, state, updated_at
		FROM %s.path_state
		WHERE player_uuid = $1`,
			pq.QuoteIdentifier(p.schema)),
		playerUUID,
	)
	if err != nil {
		err := fmt.Errorf("failed to load path state: %w", err)
		reporting.Report(ctx, err, map[string]string{"uuid": playerUUID})
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	state := domain.NewPlayerPathState(playerUUID)
	for _, row := range rows {
		var storage pathProgressStorage
		if err := json.Unmarshal(row.State, &storage); err != nil {
			err := fmt.Errorf("failed to unmarshal path state payload: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"uuid": playerUUID,
				"path": row.PathName,
			})
			return nil, err
		}
		state.SetProgressFor(row.PathName, progressFromStorage(storage))
	}

	return state, nil
}

// SavePlayerPathState replaces the player's stored rows with the given state
// in one transaction, so paths removed from the state don't leave stale rows
// behind.
func (p *Postgres) SavePlayerPathState(ctx context.Context, state *domain.PlayerPathState) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.SavePlayerPathState")
	defer span.End()

	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to begin transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{"uuid": state.PlayerUUID})
		return err
	}
	defer func() {
		if err := txx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			reporting.Report(ctx, fmt.Errorf("failed to rollback transaction: %w", err))
		}
	}()

	_, err = txx.ExecContext(
		ctx,
		fmt.Sprintf(`DELETE FROM %s.path_state WHERE player_uuid = $1`, pq.QuoteIdentifier(p.schema)),
		state.PlayerUUID,
	)
	if err != nil {
		err := fmt.Errorf("failed to clear path state: %w", err)
		reporting.Report(ctx, err, map[string]string{"uuid": state.PlayerUUID})
		return err
	}

	now := p.nowFunc()
	for pathName, progress := range state.Progress {
		payload, err := json.Marshal(progressToStorage(progress))
		if err != nil {
			err := fmt.Errorf("failed to marshal path state payload: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"uuid": state.PlayerUUID,
				"path": pathName,
			})
			return err
		}

		_, err = txx.ExecContext(
			ctx,
			fmt.Sprintf(`INSERT INTO %s.path_state
			(player_uuid, path_name, state, updated_at)
			VALUES ($1, $2, $3, $4)`,
				pq.QuoteIdentifier(p.schema)),
			state.PlayerUUID,
			pathName,
			payload,
			now,
		)
		if err != nil {
			err := fmt.Errorf("failed to insert path state: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"uuid": state.PlayerUUID,
				"path": pathName,
			})
			return err
		}
	}

	if err := txx.Commit(); err != nil {
		err := fmt.Errorf("failed to commit path state: %w", err)
		reporting.Report(ctx, err, map[string]string{"uuid": state.PlayerUUID})
		return err
	}

	return nil
}

// NewPostgresOrMock returns a postgres-backed repository, falling back to an
// in-memory one in development when no database connection is available.
func NewPostgresOrMock(conf config.Config, db *sqlx.DB, logger *slog.Logger) (pathing.StateRepository, error) {
	if db != nil {
		return NewPostgres(db, database.GetSchemaName(!conf.IsProduction()), time.Now), nil
	}

	if conf.IsDevelopment() {
		logger.Warn("No database connection. Falling back to in-memory path state.")
		return NewInMemory(), nil
	}

	return nil, fmt.Errorf("no database connection available")
}
