package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_Authenticate(t *testing.T) {
	sess := New(time.Hour)
	assert.False(t, sess.IsAuthenticated())
	assert.NotEmpty(t, sess.Token)

	sess.LoginError = true
	sess.Authenticate("alice")
	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, "alice", sess.Username)
	assert.False(t, sess.LoginError)
}

func TestSession_Flashes(t *testing.T) {
	var sess Session
	assert.Empty(t, sess.Flashes())

	sess.AddFlash("User not found.")
	sess.AddFlash("Invalid password")
	assert.Equal(t, []string{"User not found.", "Invalid password"}, sess.Flashes())
	assert.Empty(t, sess.Flashes(), "flashes are only shown once")
}

func TestSession_TakeOnce(t *testing.T) {
	sess := Session{LoginError: true, EmailStatus: EmailFailed}

	assert.True(t, sess.TakeLoginError())
	assert.False(t, sess.TakeLoginError())

	assert.Equal(t, EmailFailed, sess.TakeEmailStatus())
	assert.Equal(t, EmailNoAttempt, sess.TakeEmailStatus())
}

func TestSession_IsExpired(t *testing.T) {
	now := time.Date(2020, time.March, 1, 12, 0, 0, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{name: "future", expiresAt: now.Add(time.Second)},
		{name: "now", expiresAt: now, want: true},
		{name: "past", expiresAt: now.Add(-time.Second), want: true},
		{name: "zero", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := Session{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, sess.IsExpired())
		})
	}
}

func TestNewToken(t *testing.T) {
	assert.NotEqual(t, NewToken(), NewToken())
	assert.Len(t, NewToken(), 36)
}
