package echoweb

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/yellowsub/core/session"
)

const (
	contextSessionKey = "session"
	sessionStateKey   = "state"
)

// dbStore is a sessions.Store keeping the session.Session state in a session.Store.
// The cookie only carries the signed token.
type dbStore struct {
	repo    session.Store
	codecs  []securecookie.Codec
	options *sessions.Options
	maxAge  time.Duration
}

var _ sessions.Store = (*dbStore)(nil)

func newDBStore(repo session.Store, maxAge time.Duration, secure bool, hashKey []byte) *dbStore {
	codecs := securecookie.CodecsFromPairs(hashKey)
	for _, codec := range codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(int(maxAge.Seconds()))
		}
	}
	return &dbStore{
		repo:   repo,
		codecs: codecs,
		options: &sessions.Options{
			Path:     "/",
			MaxAge:   int(maxAge.Seconds()),
			Secure:   secure,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		maxAge: maxAge,
	}
}

func (st *dbStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(st, name)
}

// New loads the session named by the request cookie, or starts an anonymous one.
// Tampered, expired and unknown tokens start a new session.
func (st *dbStore) New(r *http.Request, name string) (*sessions.Session, error) {
	s := sessions.NewSession(st, name)
	opts := *st.options
	s.Options = &opts
	s.IsNew = true
	state := session.New(st.maxAge)

	if cookie, err := r.Cookie(name); err == nil {
		var token string
		if err = securecookie.DecodeMulti(name, cookie.Value, &token, st.codecs...); err == nil {
			stored, err := st.repo.Get(r.Context(), token)
			switch {
			case err == nil:
				state, s.IsNew = stored, false
			case !errors.Is(err, session.ErrNotFound):
				return s, errors.Wrap(err, "loading session")
			}
		}
	}
	s.ID = state.Token
	s.Values[sessionStateKey] = &state
	return s, nil
}

// Save persists the session state and refreshes the cookie. A negative MaxAge deletes both.
// Blank sessions are only saved once they exist in the store.
func (st *dbStore) Save(r *http.Request, w http.ResponseWriter, s *sessions.Session) error {
	ctx := r.Context()
	state := stateOf(s)

	if s.Options.MaxAge < 0 {
		if !s.IsNew {
			if err := st.repo.Delete(ctx, s.ID); err != nil {
				return errors.Wrap(err, "deleting session")
			}
		}
		http.SetCookie(w, sessions.NewCookie(s.Name(), "", s.Options))
		return nil
	}
	if s.IsNew && isBlank(state) {
		return nil
	}
	if !s.IsNew && s.ID != state.Token { // rotated
		if err := st.repo.Delete(ctx, s.ID); err != nil {
			return errors.Wrap(err, "deleting session")
		}
	}

	state.ExpiresAt = session.NowFunc().Add(st.maxAge).UTC()
	if err := st.repo.Save(ctx, *state); err != nil {
		return errors.Wrap(err, "saving session")
	}
	s.ID, s.IsNew = state.Token, false

	encoded, err := securecookie.EncodeMulti(s.Name(), state.Token, st.codecs...)
	if err != nil {
		return errors.Wrap(err, "encoding session cookie")
	}
	http.SetCookie(w, sessions.NewCookie(s.Name(), encoded, s.Options))
	return nil
}

func stateOf(s *sessions.Session) *session.Session {
	state, ok := s.Values[sessionStateKey].(*session.Session)
	if !ok {
		state = new(session.Session)
		s.Values[sessionStateKey] = state
	}
	return state
}

func isBlank(sess *session.Session) bool {
	return !sess.IsAuthenticated() && !sess.LoginError && len(sess.Messages) == 0 &&
		sess.EmailStatus == session.EmailNoAttempt && sess.LastTab == ""
}

type sessionManager struct {
	store      *dbStore
	cookieName string
}

// middleware loads the request's Session, or starts an anonymous one.
func (sm *sessionManager) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		s, err := sm.store.New(ctx.Request(), sm.cookieName)
		if err != nil {
			return err
		}
		ctx.Set(contextSessionKey, s)
		return next(ctx)
	}
}

// save persists the request's Session before the response is written.
func (sm *sessionManager) save(ctx echo.Context) error {
	s, ok := ctx.Get(contextSessionKey).(*sessions.Session)
	if !ok {
		return nil
	}
	return s.Save(ctx.Request(), ctx.Response())
}

// start authenticates the Session under a new token.
func (sm *sessionManager) start(ctx echo.Context, username string) error {
	sess := getSession(ctx)
	sess.Token = session.NewToken()
	sess.Authenticate(username)
	return sm.save(ctx)
}

// destroy deletes the Session and expires its cookie. The rest of the request is anonymous.
func (sm *sessionManager) destroy(ctx echo.Context) error {
	s, ok := ctx.Get(contextSessionKey).(*sessions.Session)
	if !ok {
		return nil
	}
	s.Options.MaxAge = -1
	if err := s.Save(ctx.Request(), ctx.Response()); err != nil {
		return err
	}

	anon := session.New(sm.store.maxAge)
	s.ID, s.IsNew = anon.Token, true
	s.Values[sessionStateKey] = &anon
	s.Options.MaxAge = sm.store.options.MaxAge
	return nil
}

func getSession(ctx echo.Context) *session.Session {
	if s, ok := ctx.Get(contextSessionKey).(*sessions.Session); ok {
		return stateOf(s)
	}
	return new(session.Session)
}

// requireAuth redirects anonymous sessions to the landing page.
func requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if !getSession(ctx).IsAuthenticated() {
			return ctx.Redirect(http.StatusFound, "/")
		}
		return next(ctx)
	}
}
