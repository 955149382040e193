package profilecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/aldente/internal/client/models"
	"github.com/dmitrijs2005/aldente/internal/dbx"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Load(ctx context.Context) (Entry, error) {
	var (
		body    []byte
		savedAt time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT body, saved_at FROM profile_cache ORDER BY saved_at DESC LIMIT 1`,
	).Scan(&body, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to load cached profile: %w", err)
	}

	var p models.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return Entry{}, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return Entry{Profile: p, SavedAt: savedAt}, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, p models.Profile) error {
	if p.Username == "" {
		return fmt.Errorf("failed to cache profile: empty username")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	savedAt := r.now().UTC()

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM profile_cache WHERE username <> ?`, p.Username,
		); err != nil {
			return fmt.Errorf("failed to evict cached profiles: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO profile_cache (username, body, saved_at) VALUES (?, ?, ?)
			ON CONFLICT(username) DO UPDATE SET body = excluded.body, saved_at = excluded.saved_at
		`, p.Username, body, savedAt); err != nil {
			return fmt.Errorf("failed to cache profile[%s]: %w", p.Username, err)
		}
		return nil
	})
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM profile_cache`); err != nil {
		return fmt.Errorf("failed to clear profile cache: %w", err)
	}
	return nil
}
