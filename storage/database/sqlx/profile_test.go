package sqlxrepos_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/yellowsub/core"
	"github.com/trezcool/yellowsub/core/profile"
	"github.com/trezcool/yellowsub/storage/database/inmem"
	"github.com/trezcool/yellowsub/storage/database/sqlx"
	"github.com/trezcool/yellowsub/tests"
)

type repoFactory struct {
	name string
	new  func(t *testing.T) profile.Repository
}

var profileRepos = []repoFactory{
	{name: "sqlx", new: func(t *testing.T) profile.Repository { return sqlxrepos.NewProfileRepository(testutil.PrepareDB(t)) }},
	{name: "inmem", new: func(t *testing.T) profile.Repository { return inmemdb.NewProfileRepository(inmemdb.Open()) }},
}

func TestProfileRepository_CreateGet(t *testing.T) {
	for _, rf := range profileRepos {
		t.Run(rf.name, func(t *testing.T) {
			repo := rf.new(t)
			ctx := context.Background()

			alice := testutil.CreateProfile(t, repo, "alice", "pw1", "alice@test.cd")

			got, err := repo.GetProfile(ctx, profile.GetFilter{Username: "alice"})
			require.NoError(t, err)
			assert.Equal(t, alice, got)
			assert.NoError(t, got.CheckPassword("pw1"))

			got, err = repo.GetProfile(ctx, profile.GetFilter{ID: alice.ID})
			require.NoError(t, err)
			assert.Equal(t, alice.Username, got.Username)

			_, err = repo.GetProfile(ctx, profile.GetFilter{Username: "bob"})
			assert.Equal(t, profile.ErrNotFound, err)
			_, err = repo.GetProfile(ctx, profile.GetFilter{})
			assert.Equal(t, profile.ErrNotFound, err)

			dup := alice
			dup.ID = uuid.NewString()
			_, err = repo.CreateProfile(ctx, dup)
			assert.Equal(t, profile.ErrUsernameExists, err)
		})
	}
}

func TestProfileRepository_ConcurrentCreate(t *testing.T) {
	for _, rf := range profileRepos {
		t.Run(rf.name, func(t *testing.T) {
			repo := rf.new(t)
			now := time.Now().UTC().Truncate(time.Microsecond)

			const n = 8
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				created int
				dupes   int
			)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					p := profile.Profile{ID: uuid.NewString(), Username: "race", CreatedAt: now, UpdatedAt: now}
					_, err := repo.CreateProfile(context.Background(), p)
					mu.Lock()
					defer mu.Unlock()
					switch err {
					case nil:
						created++
					case profile.ErrUsernameExists:
						dupes++
					default:
						t.Errorf("CreateProfile() unexpected error = %v", err)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, 1, created)
			assert.Equal(t, n-1, dupes)
		})
	}
}

func TestProfileRepository_Update(t *testing.T) {
	for _, rf := range profileRepos {
		t.Run(rf.name, func(t *testing.T) {
			repo := rf.new(t)
			ctx := context.Background()
			alice := testutil.CreateProfile(t, repo, "alice", "pw1", "alice@test.cd")

			upd := alice
			upd.Username = "mallory" // ignored
			upd.PasswordHash = []byte("nope")
			upd.ParentFirst = "Carol"
			upd.Address = profile.Address{Street: "1 Yellow St", CityState: "Liverpool", Zip: "L1"}
			upd.EmergencyAddress.Zip = "L2"
			upd.UpdatedAt = alice.UpdatedAt.Add(time.Minute)

			got, err := repo.UpdateProfile(ctx, upd)
			require.NoError(t, err)
			assert.Equal(t, "alice", got.Username)
			assert.NoError(t, got.CheckPassword("pw1"))
			assert.Equal(t, "Carol", got.ParentFirst)
			assert.Equal(t, upd.Address, got.Address)
			assert.Equal(t, "L2", got.EmergencyAddress.Zip)
			assert.True(t, upd.UpdatedAt.Equal(got.UpdatedAt))

			upd.ID = uuid.NewString()
			_, err = repo.UpdateProfile(ctx, upd)
			assert.Equal(t, profile.ErrNotFound, err)
		})
	}
}

func TestProfileRepository_UpdateLongValues(t *testing.T) {
	long := strings.Repeat("9", 300)
	for _, rf := range profileRepos {
		t.Run(rf.name, func(t *testing.T) {
			repo := rf.new(t)
			alice := testutil.CreateProfile(t, repo, "alice", "pw1", "")

			upd := alice
			upd.Email = long + "@test.cd"
			upd.HomePhone = long
			upd.Birthday = long
			upd.Address.Zip = long
			upd.EmergencyAddress = profile.Address{Street: long, CityState: long, Zip: long}

			got, err := repo.UpdateProfile(context.Background(), upd)
			require.NoError(t, err)
			assert.Equal(t, upd.Email, got.Email)
			assert.Equal(t, long, got.HomePhone)
			assert.Equal(t, long, got.Birthday)
			assert.Equal(t, upd.EmergencyAddress, got.EmergencyAddress)
		})
	}
}

func TestProfileRepository_UpdateCredentials(t *testing.T) {
	for _, rf := range profileRepos {
		t.Run(rf.name, func(t *testing.T) {
			repo := rf.new(t)
			ctx := context.Background()
			alice := testutil.CreateProfile(t, repo, "alice", "pw1", "alice@test.cd")
			now := time.Now().UTC().Truncate(time.Microsecond)

			np := alice
			require.NoError(t, np.SetPassword("pw2"))
			require.NoError(t, repo.UpdatePassword(ctx, alice.ID, np.PasswordHash, now))
			require.NoError(t, repo.UpdateLastLogin(ctx, alice.ID, now))

			got, err := repo.GetProfile(ctx, profile.GetFilter{ID: alice.ID})
			require.NoError(t, err)
			assert.NoError(t, got.CheckPassword("pw2"))
			assert.Error(t, got.CheckPassword("pw1"))
			assert.True(t, now.Equal(got.LastLogin))

			assert.Equal(t, profile.ErrNotFound, repo.UpdatePassword(ctx, "unknown", np.PasswordHash, now))
			assert.Equal(t, profile.ErrNotFound, repo.UpdateLastLogin(ctx, "unknown", now))
		})
	}
}

func TestProfileRepository_Query(t *testing.T) {
	for _, rf := range profileRepos {
		t.Run(rf.name, func(t *testing.T) {
			repo := rf.new(t)
			ctx := context.Background()
			now := time.Now().UTC().Truncate(time.Microsecond)

			carol := testutil.CreateProfile(t, repo, "carol", "", "carol@test.cd", now.Add(time.Hour))
			alice := testutil.CreateProfile(t, repo, "alice", "", "alice@test.cd", now)
			bob := testutil.CreateProfile(t, repo, "bob", "", "bobby@other.cd", now.Add(2*time.Hour))

			usernames := func(profiles []profile.Profile) []string {
				names := make([]string, 0, len(profiles))
				for _, p := range profiles {
					names = append(names, p.Username)
				}
				return names
			}

			tests := []struct {
				name     string
				filter   *profile.QueryFilter
				ordering []core.DBOrdering
				want     []string
			}{
				{name: "all", want: []string{alice.Username, bob.Username, carol.Username}},
				{name: "search", filter: &profile.QueryFilter{Search: "TEST.CD"}, want: []string{"alice", "carol"}},
				{name: "search (unknown)", filter: &profile.QueryFilter{Search: "lol"}, want: []string{}},
				{
					name: "order by -created_at", ordering: []core.DBOrdering{{Field: "created_at"}},
					want: []string{"bob", "carol", "alice"},
				},
				{
					name: "order by created_at", ordering: []core.DBOrdering{{Field: "created_at", Ascending: true}},
					want: []string{"alice", "carol", "bob"},
				},
				{
					name: "unknown ordering field", ordering: []core.DBOrdering{{Field: "password_hash"}},
					want: []string{"alice", "bob", "carol"},
				},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := repo.QueryProfiles(ctx, tt.filter, tt.ordering...)
					require.NoError(t, err)
					assert.Equal(t, tt.want, usernames(got))
				})
			}
		})
	}
}
