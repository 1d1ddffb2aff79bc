package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Registers the "pgx" driver.
)

const schema = `
CREATE TABLE IF NOT EXISTS sky_charts (
	id            UUID PRIMARY KEY,
	created_at    TIMESTAMPTZ NOT NULL,
	observer_name TEXT NOT NULL,
	lat           DOUBLE PRECISION NOT NULL,
	lon           DOUBLE PRECISION NOT NULL,
	instant       TIMESTAMPTZ NOT NULL,
	payload       JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS sky_charts_created_at_idx ON sky_charts (created_at DESC);
`

// PostgresStore keeps records in a Postgres table.
type PostgresStore struct {
	DB  *sql.DB
	now func() time.Time
}

var _ Store = (*PostgresStore)(nil)

// Open connects to Postgres through the pgx driver and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("verify postgres connection: %w", err)
	}
	return db, nil
}

// NewPostgresStore wraps an open database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db, now: time.Now}
}

// EnsureSchema creates the table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("history: db is nil")
	}
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure history schema: %w", err)
	}
	return nil
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, rec Record) (Record, error) {
	if s.DB == nil {
		return Record{}, errors.New("history: db is nil")
	}
	rec = prepare(rec, s.now)

	q := `
	INSERT INTO sky_charts (id, created_at, observer_name, lat, lon, instant, payload)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := s.DB.ExecContext(ctx, q,
		rec.ID, rec.CreatedAt, rec.ObserverName, rec.Lat, rec.Lon, rec.Instant, []byte(rec.Payload))
	if err != nil {
		return Record{}, fmt.Errorf("save chart: insert into sky_charts: %w", err)
	}
	return rec, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	if s.DB == nil {
		return Record{}, errors.New("history: db is nil")
	}
	if !validID(id) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	q := `
	SELECT id, created_at, observer_name, lat, lon, instant, payload
	FROM sky_charts
	WHERE id = $1;
	`
	rec, err := scanRecord(s.DB.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get chart: %w", err)
	}
	return rec, nil
}

// Recent implements Store.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if s.DB == nil {
		return nil, errors.New("history: db is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	q := `
	SELECT id, created_at, observer_name, lat, lon, instant, payload
	FROM sky_charts
	ORDER BY created_at DESC
	LIMIT $1;
	`
	rows, err := s.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("recent charts: query sky_charts table: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("recent charts: scan row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent charts: row iteration: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var payload []byte
	err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.ObserverName, &rec.Lat, &rec.Lon, &rec.Instant, &payload)
	if err != nil {
		return Record{}, err
	}
	rec.Payload = payload
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.Instant = rec.Instant.UTC()
	return rec, nil
}
