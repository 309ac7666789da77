package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap/zaptest"

	"github.com/trezcool/yellowsub/core"
	"github.com/trezcool/yellowsub/core/profile"
	"github.com/trezcool/yellowsub/services/logger"
	"github.com/trezcool/yellowsub/storage/database"
)

func init() {
	goose.SetLogger(goose.NopLogger())
}

// NewConfig returns the TEST configuration backed by an in-memory sqlite DB.
func NewConfig(t testing.TB) *core.Config {
	t.Setenv("ENV", "TEST")
	conf := core.NewConfig()
	conf.Database.Engine = database.SQLite
	conf.Database.Name = ":memory:"
	conf.Mail.Backend = "console"
	conf.Server.CSRF = false
	return conf
}

// PrepareDB opens a fresh, migrated in-memory DB that is closed at the end of the test.
func PrepareDB(t testing.TB) *sqlx.DB {
	conf := NewConfig(t)
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("database.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db, conf.Database.Engine); err != nil {
		t.Fatalf("database.Migrate() failed: %v", err)
	}
	return db
}

// NewLogger returns a logger writing to the test output, with Rollbar disabled.
func NewLogger(t testing.TB, conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(zaptest.NewLogger(t).Sugar(), conf)
	logger.Enable(false)
	return logger
}

func CreateProfile(
	t testing.TB,
	repo profile.Repository,
	uname, pwd, email string,
	createdAt ...time.Time,
) profile.Profile {
	tstamp := time.Now().UTC().Truncate(time.Microsecond)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	p := profile.Profile{
		ID:        uuid.NewString(),
		Username:  uname,
		Email:     email,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := p.SetPassword(pwd); err != nil {
			t.Fatalf("createProfile() failed: %v", err)
		}
	}
	p, err := repo.CreateProfile(context.Background(), p)
	if err != nil {
		t.Fatalf("createProfile() failed: %v", err)
	}
	return p
}
