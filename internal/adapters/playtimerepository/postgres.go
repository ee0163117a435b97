// Package playtimerepository persists per-player playtime counters.
package playtimerepository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/pathways-mc/pathways/internal/adapters/database"
	"github.com/pathways-mc/pathways/internal/config"
	"github.com/pathways-mc/pathways/internal/domain"
	"github.com/pathways-mc/pathways/internal/playtime"
	"github.com/pathways-mc/pathways/internal/reporting"
)

type Postgres struct {
	db      *sqlx.DB
	schema  string
	tracer  trace.Tracer
	nowFunc func() time.Time
}

func NewPostgres(db *sqlx.DB, schema string, nowFunc func() time.Time) *Postgres {
	tracer := otel.Tracer("pathways/playtimerepository/postgres")
	return &Postgres{
		db:      db,
		schema:  schema,
		tracer:  tracer,
		nowFunc: nowFunc,
	}
}

type dbPlayTime struct {
	PlayerUUID string `db:"player_uuid"`
	Bucket     string `db:"bucket"`
	Minutes    int    `db:"minutes"`
}

func (p *Postgres) PlayTime(ctx context.Context, playerUUID string, bucket domain.TimeBucket) (int, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.PlayTime")
	defer span.End()

	var minutes []int
	err := p.db.SelectContext(
		ctx,
		&minutes,
		fmt.Sprintf(`SELECT minutes FROM %s.play_time
		WHERE player_uuid = $1 AND bucket = $2`,
			pq.QuoteIdentifier(p.schema)),
		playerUUID,
		string(bucket),
	)
	if err != nil {
		err := fmt.Errorf("failed to load playtime: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid":   playerUUID,
			"bucket": string(bucket),
		})
		return 0, err
	}

	if len(minutes) == 0 {
		return 0, nil
	}
	return minutes[0], nil
}

func (p *Postgres) AddPlayTime(ctx context.Context, playerUUID string, bucket domain.TimeBucket, minutes int) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.AddPlayTime")
	defer span.End()

	_, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.play_time
		(player_uuid, bucket, minutes, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_uuid, bucket)
		DO UPDATE SET
			minutes = play_time.minutes + EXCLUDED.minutes,
			updated_at = EXCLUDED.updated_at`,
			pq.QuoteIdentifier(p.schema)),
		playerUUID,
		string(bucket),
		minutes,
		p.nowFunc(),
	)
	if err != nil {
		err := fmt.Errorf("failed to add playtime: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid":   playerUUID,
			"bucket": string(bucket),
		})
		return err
	}
	return nil
}

func (p *Postgres) SetPlayTime(ctx context.Context, playerUUID string, bucket domain.TimeBucket, minutes int) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.SetPlayTime")
	defer span.End()

	_, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.play_time
		(player_uuid, bucket, minutes, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_uuid, bucket)
		DO UPDATE SET
			minutes = EXCLUDED.minutes,
			updated_at = EXCLUDED.updated_at`,
			pq.QuoteIdentifier(p.schema)),
		playerUUID,
		string(bucket),
		minutes,
		p.nowFunc(),
	)
	if err != nil {
		err := fmt.Errorf("failed to set playtime: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid":   playerUUID,
			"bucket": string(bucket),
		})
		return err
	}
	return nil
}

func (p *Postgres) ResetBucket(ctx context.Context, bucket domain.TimeBucket) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.ResetBucket")
	defer span.End()

	_, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(`DELETE FROM %s.play_time WHERE bucket = $1`, pq.QuoteIdentifier(p.schema)),
		string(bucket),
	)
	if err != nil {
		err := fmt.Errorf("failed to reset bucket: %w", err)
		reporting.Report(ctx, err, map[string]string{"bucket": string(bucket)})
		return err
	}
	return nil
}

func (p *Postgres) TopPlayTimes(ctx context.Context, bucket domain.TimeBucket, limit int) ([]domain.PlayTimeEntry, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.TopPlayTimes")
	defer span.End()

	var rows []dbPlayTime
	err := p.db.SelectContext(
		ctx,
		&rows,
		fmt.Sprintf(`SELECT player_uuid, bucket, minutes FROM %s.play_time
		WHERE bucket = $1
		ORDER BY minutes DESC
		LIMIT $2`,
			pq.QuoteIdentifier(p.schema)),
		string(bucket),
		limit,
	)
	if err != nil {
		err := fmt.Errorf("failed to load top playtimes: %w", err)
		reporting.Report(ctx, err, map[string]string{"bucket": string(bucket)})
		return nil, err
	}

	entries := make([]domain.PlayTimeEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.PlayTimeEntry{
			PlayerUUID: row.PlayerUUID,
			Minutes:    row.Minutes,
		})
	}
	return entries, nil
}

// NewPostgresOrMock returns a postgres-backed repository, falling back to an
// in-memory one in development when the database is unreachable.
func NewPostgresOrMock(conf config.Config, db *sqlx.DB, logger *slog.Logger) (playtime.Repository, error) {
	if db != nil {
		return NewPostgres(db, database.GetSchemaName(!conf.IsProduction()), time.Now), nil
	}

	if conf.IsDevelopment() {
		logger.Warn("No database connection. Falling back to in-memory playtime.")
		return NewInMemory(), nil
	}

	return nil, fmt.Errorf("no database connection available")
}
