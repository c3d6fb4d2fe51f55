package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres persists materialized entities so identity and reconciliation
// survive process restarts.
type Postgres struct {
	db *sql.DB
}

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// NewPostgres connects and creates the entity table if needed.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open registry db: %w", err)
	}
	if err := Ping(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping registry db: %w", err)
	}
	p := &Postgres{db: db}
	if err := p.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	q := `
CREATE TABLE IF NOT EXISTS journey_entities (
  key        text PRIMARY KEY,
  kind       text NOT NULL,
  name       text NOT NULL DEFAULT '',
  created_at timestamptz NOT NULL DEFAULT now()
)`
	if _, err := p.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create journey_entities: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) List(ctx context.Context) ([]Entry, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT key, kind, name FROM journey_entities ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query journey_entities: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Kind, &e.Name); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (p *Postgres) Ensure(ctx context.Context, e Entry) error {
	q := `
INSERT INTO journey_entities (key, kind, name) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET kind = EXCLUDED.kind, name = EXCLUDED.name`
	_, err := p.db.ExecContext(ctx, q, e.Key, string(e.Kind), e.Name)
	return err
}

func (p *Postgres) Remove(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM journey_entities WHERE key = $1`, key)
	return err
}
