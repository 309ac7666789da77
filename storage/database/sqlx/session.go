package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/yellowsub/core"
	"github.com/trezcool/yellowsub/core/session"
)

const saveSessionQuery = `INSERT INTO web_session (token, data, expires_at) VALUES (?, ?, ?)
	ON CONFLICT (token) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`

type sessionRow struct {
	Data      string `db:"data"`
	ExpiresAt int64  `db:"expires_at"` // unix seconds
}

type sessionStore struct {
	exec core.DBExecutor
}

var _ session.Store = (*sessionStore)(nil) // interface compliance check

// NewSessionStore returns a session.Store keeping sessions in the web_session table.
func NewSessionStore(exec core.DBExecutor) *sessionStore {
	return &sessionStore{exec: exec}
}

func (store sessionStore) Get(ctx context.Context, token string) (session.Session, error) {
	if token == "" {
		return session.Session{}, session.ErrNotFound
	}

	var row sessionRow
	q := store.exec.Rebind("SELECT data, expires_at FROM web_session WHERE token = ? AND expires_at > ?")
	if err := store.exec.GetContext(ctx, &row, q, token, session.NowFunc().Unix()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "finding session")
	}

	var sess session.Session
	if err := json.Unmarshal([]byte(row.Data), &sess); err != nil {
		return session.Session{}, errors.Wrap(err, "decoding session")
	}
	sess.Token = token
	sess.ExpiresAt = time.Unix(row.ExpiresAt, 0).UTC()
	return sess, nil
}

func (store sessionStore) Save(ctx context.Context, sess session.Session) error {
	if sess.Token == "" {
		return errors.New("saving session: empty token")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if _, err = store.exec.ExecContext(ctx, store.exec.Rebind(saveSessionQuery), sess.Token, string(data), sess.ExpiresAt.Unix()); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return nil
}

func (store sessionStore) Delete(ctx context.Context, token string) error {
	if _, err := store.exec.ExecContext(ctx, store.exec.Rebind("DELETE FROM web_session WHERE token = ?"), token); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return nil
}

func (store sessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	q := store.exec.Rebind("DELETE FROM web_session WHERE expires_at <= ?")
	res, err := store.exec.ExecContext(ctx, q, session.NowFunc().Unix())
	if err != nil {
		return 0, errors.Wrap(err, "deleting expired sessions")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted sessions")
	}
	return n, nil
}
