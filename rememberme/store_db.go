package rememberme

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/veridianlabs/authcore/internal/dbx"
)

// DBStore is a relational record store over database/sql. It accepts any
// [dbx.DBTX], so callers can hand it a *sql.DB or enlist it in a broader
// transaction through [dbx.WithTx].
//
// Expected schema (PostgreSQL dialect):
//
//	CREATE TABLE remember_me_tokens (
//	    username   TEXT PRIMARY KEY,
//	    token_id   TEXT NOT NULL,
//	    user_id    TEXT NOT NULL,
//	    issued_at  TIMESTAMPTZ NOT NULL,
//	    expires_at TIMESTAMPTZ NOT NULL
//	);
type DBStore struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewDBStore(db dbx.DBTX) *DBStore {
	return &DBStore{db: db, now: time.Now}
}

func (s *DBStore) Save(ctx context.Context, record *Record) error {
	query :=
		`INSERT INTO remember_me_tokens (username, token_id, user_id, issued_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (username) DO UPDATE
		 SET token_id = EXCLUDED.token_id, user_id = EXCLUDED.user_id,
		     issued_at = EXCLUDED.issued_at, expires_at = EXCLUDED.expires_at
		 `

	_, err := s.db.ExecContext(ctx, query,
		record.Username, record.ID, record.UserID, record.IssuedAt, record.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (s *DBStore) Read(ctx context.Context, username string) (*Record, error) {
	query :=
		`SELECT token_id, user_id, issued_at, expires_at FROM remember_me_tokens
		 WHERE username = $1
		 `

	record := &Record{Username: username}
	err := s.db.QueryRowContext(ctx, query, username).
		Scan(&record.ID, &record.UserID, &record.IssuedAt, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	if !record.ExpiresAt.After(s.now()) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM remember_me_tokens WHERE username = $1`, username)
		return nil, ErrNotFound
	}
	return record, nil
}

func (s *DBStore) Delete(ctx context.Context, username string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM remember_me_tokens WHERE username = $1`, username)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return n > 0, nil
}
