package inmemdb

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/yellowsub/core/session"
)

type sessionStore struct {
	db *sessionTable
}

var _ session.Store = (*sessionStore)(nil)

func NewSessionStore(db *DB) session.Store {
	return &sessionStore{db: db.session}
}

func copySession(sess session.Session) session.Session {
	sess.Messages = append([]string(nil), sess.Messages...)
	return sess
}

func (store *sessionStore) Get(_ context.Context, token string) (session.Session, error) {
	store.db.mutex.RLock()
	defer store.db.mutex.RUnlock()

	sess, ok := store.db.table[token]
	if !ok || sess.IsExpired() {
		return session.Session{}, session.ErrNotFound
	}
	return copySession(sess), nil
}

func (store *sessionStore) Save(_ context.Context, sess session.Session) error {
	if sess.Token == "" {
		return errors.New("saving session: empty token")
	}
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()
	store.db.table[sess.Token] = copySession(sess)
	return nil
}

func (store *sessionStore) Delete(_ context.Context, token string) error {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()
	delete(store.db.table, token)
	return nil
}

func (store *sessionStore) DeleteExpired(_ context.Context) (int64, error) {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()

	var n int64
	for token, sess := range store.db.table {
		if sess.IsExpired() {
			delete(store.db.table, token)
			n++
		}
	}
	return n, nil
}
