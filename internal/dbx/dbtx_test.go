package dbx

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "dbx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func count(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&n))
	return n
}

func insert(ctx context.Context, tx DBTX, body string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO notes(body) VALUES (?)`, body)
	return err
}

func TestWithTx(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(ctx context.Context, tx DBTX) error
		wantErr bool
		want    int
	}{
		{
			name: "commit",
			fn: func(ctx context.Context, tx DBTX) error {
				if err := insert(ctx, tx, "a"); err != nil {
					return err
				}
				return insert(ctx, tx, "b")
			},
			want: 2,
		},
		{
			name: "rollback on error",
			fn: func(ctx context.Context, tx DBTX) error {
				if err := insert(ctx, tx, "a"); err != nil {
					return err
				}
				return errors.New("boom")
			},
			wantErr: true,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openDB(t)

			err := WithTx(context.Background(), db, nil, tt.fn)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, count(t, db))
		})
	}
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openDB(t)

	assert.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, insert(ctx, tx, "x"))
			panic("kaput")
		})
	})
	assert.Equal(t, 0, count(t, db))
}

func TestWithTx_BeginError(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.ErrorContains(t, err, "begin tx")
	assert.False(t, called)
}
