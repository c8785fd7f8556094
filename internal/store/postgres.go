package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	appLog "coursegrid/internal/log"
	"coursegrid/internal/model"
)

// schema is applied on connect. Times stay "HH:MM" text and dates
// "YYYY-MM-DD" text on purpose: the whole system is zone-less wall-clock and
// round-tripping through SQL date/time types would invite zone handling.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	title              TEXT NOT NULL,
	start_time         TEXT NOT NULL,
	end_time           TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	professor          TEXT NOT NULL DEFAULT '',
	location           TEXT NOT NULL DEFAULT '',
	theme              TEXT NOT NULL DEFAULT '',
	recurrence_pattern TEXT NOT NULL,
	day_of_week        TEXT NOT NULL DEFAULT '',
	reference_date     TEXT NOT NULL DEFAULT '',
	start_date         TEXT NOT NULL DEFAULT '',
	end_date           TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS visibility_codes (
	code TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS shares (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	title      TEXT NOT NULL,
	term       TEXT NOT NULL DEFAULT '',
	payload    JSONB NOT NULL,
	view_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS shares_created_at_idx ON shares (created_at);
`

// Postgres implements Store on top of sqlx + lib/pq.
type Postgres struct {
	db *sqlx.DB
}

var _ Store = (*Postgres)(nil)

// NewPostgres connects to the given DSN, verifies the connection and applies
// the schema.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	appLog.Info("connected to postgres")
	return &Postgres{db: db}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// eventRow is the flat relational shape of an EventRecord.
type eventRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	StartTime   string `db:"start_time"`
	EndTime     string `db:"end_time"`
	Description string `db:"description"`
	Professor   string `db:"professor"`
	Location    string `db:"location"`
	Theme       string `db:"theme"`
	Pattern     string `db:"recurrence_pattern"`
	DayOfWeek   string `db:"day_of_week"`
	RefDate     string `db:"reference_date"`
	StartDate   string `db:"start_date"`
	EndDate     string `db:"end_date"`
}

func (r eventRow) toRecord() model.EventRecord {
	rec := model.EventRecord{
		ID:          r.ID,
		Title:       r.Title,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Description: r.Description,
		Professor:   r.Professor,
		Location:    r.Location,
		Theme:       r.Theme,
	}
	fields := model.RecurrenceFields{
		Pattern:       r.Pattern,
		DayOfWeek:     r.DayOfWeek,
		ReferenceDate: r.RefDate,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
	}
	rc, err := fields.Build()
	if err != nil {
		// A bad stored row resolves to nothing rather than failing the list.
		appLog.Warn("stored event has unusable recurrence", "id", r.ID, "err", err)
	}
	rec.Recurrence = rc
	return rec
}

const eventColumns = `id, title, start_time, end_time, description, professor,
	location, theme, recurrence_pattern, day_of_week, reference_date,
	start_date, end_date`

func (p *Postgres) List(ctx context.Context) ([]model.EventRecord, error) {
	var rows []eventRow
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at, id`
	if err := p.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	out := make([]model.EventRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toRecord())
	}
	return out, nil
}

func (p *Postgres) Create(ctx context.Context, rec model.EventRecord) (model.EventRecord, error) {
	f := model.FlattenRecurrence(rec.Recurrence)
	query := `
		INSERT INTO events
		(title, start_time, end_time, description, professor, location, theme,
		 recurrence_pattern, day_of_week, reference_date, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := p.db.QueryRowContext(ctx, query,
		rec.Title, rec.StartTime, rec.EndTime, rec.Description,
		rec.Professor, rec.Location, rec.Theme,
		f.Pattern, f.DayOfWeek, f.ReferenceDate, f.StartDate, f.EndDate,
	).Scan(&rec.ID)
	if err != nil {
		return model.EventRecord{}, fmt.Errorf("create event: %w", err)
	}
	return rec, nil
}

func (p *Postgres) Update(ctx context.Context, id string, patch EventPatch) error {
	// Fetch, merge, write back: keeps patch semantics identical to the
	// in-memory store instead of duplicating them in SQL.
	var row eventRow
	get := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if err := p.db.GetContext(ctx, &row, get, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}

	rec := row.toRecord()
	if err := applyPatch(&rec, patch); err != nil {
		return err
	}
	f := model.FlattenRecurrence(rec.Recurrence)

	query := `
		UPDATE events SET
			title = $2, start_time = $3, end_time = $4, description = $5,
			professor = $6, location = $7, theme = $8, recurrence_pattern = $9,
			day_of_week = $10, reference_date = $11, start_date = $12, end_date = $13
		WHERE id = $1
	`
	_, err := p.db.ExecContext(ctx, query, id,
		rec.Title, rec.StartTime, rec.EndTime, rec.Description,
		rec.Professor, rec.Location, rec.Theme,
		f.Pattern, f.DayOfWeek, f.ReferenceDate, f.StartDate, f.EndDate,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) BulkCreate(ctx context.Context, recs []model.EventRecord) ([]model.EventRecord, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("bulk create: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO events
		(title, start_time, end_time, description, professor, location, theme,
		 recurrence_pattern, day_of_week, reference_date, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	created := make([]model.EventRecord, 0, len(recs))
	for _, rec := range recs {
		f := model.FlattenRecurrence(rec.Recurrence)
		if err := tx.QueryRowContext(ctx, query,
			rec.Title, rec.StartTime, rec.EndTime, rec.Description,
			rec.Professor, rec.Location, rec.Theme,
			f.Pattern, f.DayOfWeek, f.ReferenceDate, f.StartDate, f.EndDate,
		).Scan(&rec.ID); err != nil {
			return nil, fmt.Errorf("bulk create: %w", err)
		}
		created = append(created, rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("bulk create commit: %w", err)
	}
	return created, nil
}

func (p *Postgres) Clear(ctx context.Context) (int, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM events`)
	if err != nil {
		return 0, fmt.Errorf("clear events: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (p *Postgres) GetVisibility(ctx context.Context) ([]string, error) {
	var codes []string
	if err := p.db.SelectContext(ctx, &codes, `SELECT code FROM visibility_codes ORDER BY code`); err != nil {
		return nil, fmt.Errorf("get visibility: %w", err)
	}
	return codes, nil
}

func (p *Postgres) SetVisibility(ctx context.Context, codes []string) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set visibility: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM visibility_codes`); err != nil {
		return fmt.Errorf("set visibility: %w", err)
	}
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO visibility_codes (code) VALUES ($1) ON CONFLICT DO NOTHING`, code); err != nil {
			return fmt.Errorf("set visibility: %w", err)
		}
	}
	return tx.Commit()
}

func (p *Postgres) CreateShare(ctx context.Context, share Share) (Share, error) {
	query := `
		INSERT INTO shares (title, term, payload)
		VALUES ($1, $2, $3)
		RETURNING id, view_count, created_at
	`
	err := p.db.QueryRowContext(ctx, query, share.Title, share.Term, []byte(share.Payload)).
		Scan(&share.ID, &share.ViewCount, &share.CreatedAt)
	if err != nil {
		return Share{}, fmt.Errorf("create share: %w", err)
	}
	return share, nil
}

func (p *Postgres) GetShare(ctx context.Context, id string) (Share, error) {
	query := `
		UPDATE shares SET view_count = view_count + 1
		WHERE id = $1
		RETURNING id, title, term, payload, view_count, created_at
	`
	var (
		share   Share
		payload []byte
	)
	err := p.db.QueryRowContext(ctx, query, id).Scan(
		&share.ID, &share.Title, &share.Term, &payload, &share.ViewCount, &share.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Share{}, ErrNotFound
		}
		return Share{}, fmt.Errorf("get share: %w", err)
	}
	share.Payload = payload
	return share, nil
}

func (p *Postgres) PurgeSharesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM shares WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge shares: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		appLog.Info("purged expired shares", "count", n)
	}
	return int(n), nil
}
