package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/yellowsub/core"
)

var (
	// errors
	ErrNotFound         = errors.New("user not found")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrUsernameExists   = errors.New("user already exists")
	ErrEmailMismatch    = errors.New("email addresses do not match")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooLong  = errors.New("password is too long")

	NowFunc = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) } // mockable
)

type (
	Repository interface {
		// CreateProfile inserts a new Profile. A taken username yields ErrUsernameExists.
		CreateProfile(ctx context.Context, p Profile) (Profile, error)
		GetProfile(ctx context.Context, filter GetFilter) (Profile, error)
		QueryProfiles(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Profile, error)
		// UpdateProfile saves every field but the credentials.
		UpdateProfile(ctx context.Context, p Profile) (Profile, error)
		UpdatePassword(ctx context.Context, id string, hash []byte, updatedAt time.Time) error
		UpdateLastLogin(ctx context.Context, id string, lastLogin time.Time) error
	}

	Service interface {
		Authenticate(ctx context.Context, uname, pwd string) (Profile, error)
		Register(ctx context.Context, np NewProfile) (Profile, error)
		GetByUsername(ctx context.Context, uname string) (Profile, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Profile, error)
		Update(ctx context.Context, uname string, up UpdateProfile) (Profile, error)
		SetPassword(ctx context.Context, uname, pwd string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Authenticate checks uname & pwd, then records the login time.
func (svc *service) Authenticate(ctx context.Context, uname, pwd string) (Profile, error) {
	p, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return Profile{}, err
	}
	if err = p.CheckPassword(pwd); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Profile{}, ErrInvalidPassword
		}
		return Profile{}, err
	}
	p.LastLogin = NowFunc()
	if err = svc.repo.UpdateLastLogin(ctx, p.ID, p.LastLogin); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Register creates a Profile out of a validated NewProfile.
func (svc *service) Register(ctx context.Context, np NewProfile) (Profile, error) {
	now := NowFunc()
	p := Profile{
		ID:         uuid.NewString(),
		Username:   np.Username,
		Email:      np.Email,
		ChildFirst: np.ChildFirst,
		ChildLast:  np.ChildLast,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.SetPassword(np.Password); err != nil {
		return Profile{}, err
	}
	return svc.repo.CreateProfile(ctx, p)
}

func (svc *service) GetByUsername(ctx context.Context, uname string) (Profile, error) {
	uname = core.CleanString(uname, true /* lower */)
	if uname == "" {
		return Profile{}, ErrNotFound
	}
	return svc.repo.GetProfile(ctx, GetFilter{Username: uname})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Profile, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.Clean()
	return svc.repo.QueryProfiles(ctx, filter, ordering...)
}

// Update replaces every editable field of the Profile owned by uname.
func (svc *service) Update(ctx context.Context, uname string, up UpdateProfile) (Profile, error) {
	p, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return Profile{}, err
	}
	up.apply(&p)
	p.UpdatedAt = NowFunc()
	return svc.repo.UpdateProfile(ctx, p)
}

func (svc *service) SetPassword(ctx context.Context, uname, pwd string) error {
	p, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if err = p.SetPassword(pwd); err != nil {
		return err
	}
	return svc.repo.UpdatePassword(ctx, p.ID, p.PasswordHash, NowFunc())
}
