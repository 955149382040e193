package offlineauth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/aldente/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Load(ctx context.Context) (Record, error) {
	var rec Record
	err := r.db.QueryRowContext(ctx,
		`SELECT username, salt, verifier FROM offline_credentials LIMIT 1`,
	).Scan(&rec.Username, &rec.Salt, &rec.Verifier)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to load offline credentials: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, rec Record) error {
	if rec.Username == "" || len(rec.Salt) == 0 || len(rec.Verifier) == 0 {
		return fmt.Errorf("failed to save offline credentials: incomplete record")
	}

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM offline_credentials`); err != nil {
			return fmt.Errorf("failed to replace offline credentials: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO offline_credentials (username, salt, verifier) VALUES (?, ?, ?)`,
			rec.Username, rec.Salt, rec.Verifier,
		); err != nil {
			return fmt.Errorf("failed to save offline credentials[%s]: %w", rec.Username, err)
		}
		return nil
	})
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM offline_credentials`); err != nil {
		return fmt.Errorf("failed to clear offline credentials: %w", err)
	}
	return nil
}
