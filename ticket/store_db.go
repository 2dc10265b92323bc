package ticket

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/veridianlabs/authcore/internal/dbx"
)

// DBStore is a relational ticket store over database/sql. It accepts any
// [dbx.DBTX], so callers can hand it a *sql.DB or enlist it in a broader
// transaction through [dbx.WithTx].
//
// Expected schema (PostgreSQL dialect):
//
//	CREATE TABLE session_tickets (
//	    ticket_id      TEXT PRIMARY KEY,
//	    user_id        TEXT NOT NULL,
//	    username       TEXT NOT NULL,
//	    issued_at      TIMESTAMPTZ NOT NULL,
//	    expires_at     TIMESTAMPTZ NOT NULL,
//	    last_access_at TIMESTAMPTZ NOT NULL
//	);
type DBStore struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewDBStore(db dbx.DBTX) *DBStore {
	return &DBStore{db: db, now: time.Now}
}

func (s *DBStore) Create(ctx context.Context, t *Ticket) error {
	query :=
		`INSERT INTO session_tickets (ticket_id, user_id, username, issued_at, expires_at, last_access_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (ticket_id) DO NOTHING
		 `

	res, err := s.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.Username, t.IssuedAt, t.ExpiresAt, t.LastAccessAt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if n == 0 {
		return ErrExists
	}
	return nil
}

func (s *DBStore) Get(ctx context.Context, ticketID string) (*Ticket, error) {
	query :=
		`SELECT user_id, username, issued_at, expires_at, last_access_at FROM session_tickets
		 WHERE ticket_id = $1
		 `

	t := &Ticket{ID: ticketID}
	err := s.db.QueryRowContext(ctx, query, ticketID).
		Scan(&t.UserID, &t.Username, &t.IssuedAt, &t.ExpiresAt, &t.LastAccessAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	if !t.ExpiresAt.After(s.now()) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM session_tickets WHERE ticket_id = $1`, ticketID)
		return nil, ErrExpired
	}
	return t, nil
}

func (s *DBStore) Renew(ctx context.Context, ticketID string, expiresAt, lastAccessAt time.Time) (*Ticket, error) {
	query :=
		`UPDATE session_tickets
		 SET expires_at = GREATEST(expires_at, $2), last_access_at = $3
		 WHERE ticket_id = $1 AND expires_at > $4
		 RETURNING user_id, username, issued_at, expires_at, last_access_at
		 `

	t := &Ticket{ID: ticketID}
	err := s.db.QueryRowContext(ctx, query, ticketID, expiresAt, lastAccessAt, s.now()).
		Scan(&t.UserID, &t.Username, &t.IssuedAt, &t.ExpiresAt, &t.LastAccessAt)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	// Zero rows means either absent or already lapsed; Get distinguishes.
	if _, gerr := s.Get(ctx, ticketID); gerr != nil {
		if errors.Is(gerr, ErrExpired) || errors.Is(gerr, ErrNotFound) {
			return nil, gerr
		}
		return nil, gerr
	}
	return nil, ErrNotFound
}

func (s *DBStore) Delete(ctx context.Context, ticketID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM session_tickets WHERE ticket_id = $1`, ticketID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return n > 0, nil
}

// SweepExpired deletes every lapsed ticket row and reports how many were
// removed. Intended for a periodic housekeeping job owned by the caller.
func (s *DBStore) SweepExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM session_tickets WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return n, nil
}
