package inmemdb

import (
	"sync"

	"github.com/trezcool/yellowsub/core/profile"
	"github.com/trezcool/yellowsub/core/session"
)

type (
	DB struct {
		profile *profileTable
		session *sessionTable
	}

	profileTable struct {
		table map[string]*profile.Profile // {id: profile}
		mutex sync.RWMutex
	}

	sessionTable struct {
		table map[string]session.Session // {token: session}
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		profile: &profileTable{table: make(map[string]*profile.Profile)},
		session: &sessionTable{table: make(map[string]session.Session)},
	}
}
