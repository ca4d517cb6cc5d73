package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres keeps each collection as a JSONB row keyed by collection name.
type Postgres struct {
	Client *sql.DB
}

// NewPostgres connects through pgx and creates the collections table.
func NewPostgres(connString string) (*Postgres, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS edu_collections (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{Client: db}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := p.Client.QueryRowContext(ctx, `SELECT value FROM edu_collections WHERE key = $1`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (p *Postgres) Put(ctx context.Context, key string, data []byte) error {
	_, err := p.Client.ExecContext(ctx, `
		INSERT INTO edu_collections (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, data)
	return err
}

func (p *Postgres) Healthy(ctx context.Context) bool {
	if p == nil || p.Client == nil {
		return false
	}
	return p.Client.PingContext(ctx) == nil
}

// Close closes the underlying connection.
func (p *Postgres) Close() error {
	if p == nil || p.Client == nil {
		return nil
	}
	return p.Client.Close()
}
