package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/yellowsub/core"
	"github.com/trezcool/yellowsub/core/profile"
)

type profileRepository struct {
	db *profileTable
}

var _ profile.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db.profile}
}

func copyProfile(p *profile.Profile) profile.Profile {
	cp := *p
	cp.PasswordHash = append([]byte(nil), p.PasswordHash...)
	return cp
}

func (repo *profileRepository) CreateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, other := range repo.db.table {
		if other.Username == p.Username {
			return profile.Profile{}, profile.ErrUsernameExists
		}
	}
	if _, ok := repo.db.table[p.ID]; ok {
		return profile.Profile{}, profile.ErrUsernameExists
	}
	stored := copyProfile(&p)
	repo.db.table[p.ID] = &stored
	return p, nil
}

func (repo *profileRepository) GetProfile(_ context.Context, filter profile.GetFilter) (profile.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	switch {
	case filter.ID != "":
		if p, ok := repo.db.table[filter.ID]; ok {
			return copyProfile(p), nil
		}
	case filter.Username != "":
		for _, p := range repo.db.table {
			if p.Username == filter.Username {
				return copyProfile(p), nil
			}
		}
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) QueryProfiles(_ context.Context, filter *profile.QueryFilter, ordering ...core.DBOrdering) ([]profile.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var search string
	if filter != nil {
		search = strings.ToLower(filter.Search)
	}
	profiles := make([]profile.Profile, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		if search == "" || matches(p, search) {
			profiles = append(profiles, copyProfile(p))
		}
	}

	sort.SliceStable(profiles, func(i, j int) bool { return profiles[i].Username < profiles[j].Username })
	for k := len(ordering) - 1; k >= 0; k-- {
		ord := ordering[k]
		sort.SliceStable(profiles, func(i, j int) bool {
			c := compare(profiles[i], profiles[j], ord.Field)
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		})
	}
	return profiles, nil
}

func (repo *profileRepository) UpdateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[p.ID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	// credentials & bookkeeping are not updatable here
	p.Username = orig.Username
	p.PasswordHash = orig.PasswordHash
	p.CreatedAt = orig.CreatedAt
	p.LastLogin = orig.LastLogin
	stored := copyProfile(&p)
	repo.db.table[p.ID] = &stored
	return copyProfile(&stored), nil
}

func (repo *profileRepository) UpdatePassword(_ context.Context, id string, hash []byte, updatedAt time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p, ok := repo.db.table[id]
	if !ok {
		return profile.ErrNotFound
	}
	p.PasswordHash = append([]byte(nil), hash...)
	p.UpdatedAt = updatedAt.UTC()
	return nil
}

func (repo *profileRepository) UpdateLastLogin(_ context.Context, id string, lastLogin time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p, ok := repo.db.table[id]
	if !ok {
		return profile.ErrNotFound
	}
	p.LastLogin = lastLogin.UTC()
	return nil
}

func matches(p *profile.Profile, search string) bool {
	for _, val := range []string{p.Username, p.Email, p.ChildFirst, p.ChildLast, p.ParentFirst, p.ParentLast} {
		if strings.Contains(strings.ToLower(val), search) {
			return true
		}
	}
	return false
}

func compare(a, b profile.Profile, field string) int {
	cmpTime := func(x, y time.Time) int {
		switch {
		case x.Before(y):
			return -1
		case x.After(y):
			return 1
		}
		return 0
	}
	switch field {
	case "username":
		return strings.Compare(a.Username, b.Username)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "child_last":
		return strings.Compare(a.ChildLast, b.ChildLast)
	case "parent_last":
		return strings.Compare(a.ParentLast, b.ParentLast)
	case "created_at":
		return cmpTime(a.CreatedAt, b.CreatedAt)
	case "updated_at":
		return cmpTime(a.UpdatedAt, b.UpdatedAt)
	case "last_login":
		return cmpTime(a.LastLogin, b.LastLogin)
	}
	return 0
}
