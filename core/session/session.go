package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// errors
	ErrNotFound = errors.New("session not found")

	NowFunc = time.Now // mockable
)

// Tabs of the signed-in area.
const (
	TabAccount  = "account"
	TabContact  = "contact"
	TabFeedback = "feedback"
)

// EmailStatus is the outcome of the last feedback email.
type EmailStatus int

const (
	EmailNoAttempt EmailStatus = iota
	EmailFailed
	EmailSuccess
)

// Session is the server-side state of a browser, keyed by an opaque Token.
// It is Anonymous until Authenticate sets its Username.
type Session struct {
	Token       string      `json:"-"`
	Username    string      `json:"username,omitempty"`
	LastTab     string      `json:"last_tab,omitempty"`
	LoginError  bool        `json:"login_error,omitempty"`
	EmailStatus EmailStatus `json:"email_status,omitempty"`
	Messages    []string    `json:"messages,omitempty"`
	ExpiresAt   time.Time   `json:"-"`
}

type Store interface {
	// Get returns ErrNotFound for unknown and expired tokens.
	Get(ctx context.Context, token string) (Session, error)
	Save(ctx context.Context, sess Session) error
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes every expired Session and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}

// New returns an anonymous Session living for maxAge.
func New(maxAge time.Duration) Session {
	return Session{
		Token:     NewToken(),
		ExpiresAt: NowFunc().Add(maxAge).UTC(),
	}
}

func NewToken() string {
	return uuid.NewString()
}

func (s *Session) IsAuthenticated() bool { return s.Username != "" }

func (s *Session) IsExpired() bool { return !NowFunc().Before(s.ExpiresAt) }

// Authenticate marks the Session as owned by username and clears the login error.
func (s *Session) Authenticate(username string) {
	s.Username = username
	s.LoginError = false
}

func (s *Session) AddFlash(msg string) {
	s.Messages = append(s.Messages, msg)
}

// Flashes returns the pending flash messages and clears them.
func (s *Session) Flashes() []string {
	msgs := s.Messages
	s.Messages = nil
	return msgs
}

// TakeLoginError returns the login error flag and resets it.
func (s *Session) TakeLoginError() bool {
	failed := s.LoginError
	s.LoginError = false
	return failed
}

// TakeEmailStatus returns the last feedback outcome and resets it to EmailNoAttempt.
func (s *Session) TakeEmailStatus() EmailStatus {
	status := s.EmailStatus
	s.EmailStatus = EmailNoAttempt
	return status
}
