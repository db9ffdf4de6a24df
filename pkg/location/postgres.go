package location

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
)

type dbLocation struct {
	ID        int64     `db:"id"`
	Place     string    `db:"place"`
	Latitude  float64   `db:"latitude"`
	Longitude float64   `db:"longitude"`
	CreatedAt time.Time `db:"created_at"`
}

type PgStore struct {
	db *sqlx.DB
}

var _ Store = (*PgStore)(nil)

func OpenPgStore(databaseURL string) (*PgStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewPgStore(db), nil
}

func NewPgStore(db *sql.DB) *PgStore {
	return &PgStore{db: sqlx.NewDb(db, "postgres")}
}

func (s *PgStore) CreateSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS survey_locations (
		id BIGSERIAL PRIMARY KEY,
		place TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("create survey_locations: %w", err)
	}

	return nil
}

func (s *PgStore) Append(ctx context.Context, r Record) error {
	query := `INSERT INTO survey_locations (place, latitude, longitude) VALUES ($1, $2, $3)`

	_, err := s.db.ExecContext(ctx, query, r.Place, r.Latitude, r.Longitude)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}

	return nil
}

func (s *PgStore) ReadAll(ctx context.Context) ([]Record, error) {
	var rows []dbLocation

	err := s.db.SelectContext(ctx, &rows, `SELECT id, place, latitude, longitude, created_at FROM survey_locations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select locations: %w", err)
	}

	records := make([]Record, len(rows))
	for i := range rows {
		records[i] = rows[i].Map()
	}

	return records, nil
}

func (s *PgStore) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `TRUNCATE survey_locations RESTART IDENTITY`)
	if err != nil {
		return fmt.Errorf("truncate locations: %w", err)
	}

	return nil
}

func (s *PgStore) Close() error {
	return s.db.Close()
}

func (l dbLocation) Map() Record {
	return Record{Place: l.Place, Latitude: l.Latitude, Longitude: l.Longitude}
}
