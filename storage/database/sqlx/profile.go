package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/trezcool/yellowsub/core"
	"github.com/trezcool/yellowsub/core/profile"
)

const (
	profileColumns = `id, username, password_hash, email, child_first, child_last, parent_first, parent_last,
		home_phone, cell_phone, work_phone, street, city_state, zip, birthday,
		emer_first, emer_last, emer_street, emer_city_state, emer_zip, emer_phone,
		created_at, updated_at, last_login`

	insertProfileQuery = `INSERT INTO user_profile (` + profileColumns + `) VALUES (
		:id, :username, :password_hash, :email, :child_first, :child_last, :parent_first, :parent_last,
		:home_phone, :cell_phone, :work_phone, :street, :city_state, :zip, :birthday,
		:emer_first, :emer_last, :emer_street, :emer_city_state, :emer_zip, :emer_phone,
		:created_at, :updated_at, :last_login)`

	updateProfileQuery = `UPDATE user_profile SET
		email = :email, child_first = :child_first, child_last = :child_last,
		parent_first = :parent_first, parent_last = :parent_last,
		home_phone = :home_phone, cell_phone = :cell_phone, work_phone = :work_phone,
		street = :street, city_state = :city_state, zip = :zip, birthday = :birthday,
		emer_first = :emer_first, emer_last = :emer_last, emer_street = :emer_street,
		emer_city_state = :emer_city_state, emer_zip = :emer_zip, emer_phone = :emer_phone,
		updated_at = :updated_at
		WHERE id = :id`
)

// orderable maps the public ordering fields to their columns.
var orderable = map[string]string{
	"username":    "username",
	"email":       "email",
	"child_last":  "child_last",
	"parent_last": "parent_last",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
	"last_login":  "last_login",
}

type profileRow struct {
	ID            string    `db:"id"`
	Username      string    `db:"username"`
	PasswordHash  string    `db:"password_hash"`
	Email         string    `db:"email"`
	ChildFirst    string    `db:"child_first"`
	ChildLast     string    `db:"child_last"`
	ParentFirst   string    `db:"parent_first"`
	ParentLast    string    `db:"parent_last"`
	HomePhone     string    `db:"home_phone"`
	CellPhone     string    `db:"cell_phone"`
	WorkPhone     string    `db:"work_phone"`
	Street        string    `db:"street"`
	CityState     string    `db:"city_state"`
	Zip           string    `db:"zip"`
	Birthday      string    `db:"birthday"`
	EmerFirst     string    `db:"emer_first"`
	EmerLast      string    `db:"emer_last"`
	EmerStreet    string    `db:"emer_street"`
	EmerCityState string    `db:"emer_city_state"`
	EmerZip       string    `db:"emer_zip"`
	EmerPhone     string    `db:"emer_phone"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
	LastLogin     null.Time `db:"last_login"`
}

type profileRepository struct {
	exec core.DBExecutor
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(exec core.DBExecutor) *profileRepository {
	return &profileRepository{exec: exec}
}

func (repo profileRepository) toRow(p profile.Profile) profileRow {
	return profileRow{
		ID:            p.ID,
		Username:      p.Username,
		PasswordHash:  string(p.PasswordHash),
		Email:         p.Email,
		ChildFirst:    p.ChildFirst,
		ChildLast:     p.ChildLast,
		ParentFirst:   p.ParentFirst,
		ParentLast:    p.ParentLast,
		HomePhone:     p.HomePhone,
		CellPhone:     p.CellPhone,
		WorkPhone:     p.WorkPhone,
		Street:        p.Address.Street,
		CityState:     p.Address.CityState,
		Zip:           p.Address.Zip,
		Birthday:      p.Birthday,
		EmerFirst:     p.EmergencyFirst,
		EmerLast:      p.EmergencyLast,
		EmerStreet:    p.EmergencyAddress.Street,
		EmerCityState: p.EmergencyAddress.CityState,
		EmerZip:       p.EmergencyAddress.Zip,
		EmerPhone:     p.EmergencyPhone,
		CreatedAt:     p.CreatedAt.UTC(),
		UpdatedAt:     p.UpdatedAt.UTC(),
		LastLogin:     null.NewTime(p.LastLogin.UTC(), !p.LastLogin.IsZero()),
	}
}

func (repo profileRepository) fromRow(r profileRow) profile.Profile {
	p := profile.Profile{
		ID:               r.ID,
		Username:         r.Username,
		PasswordHash:     []byte(r.PasswordHash),
		Email:            r.Email,
		ChildFirst:       r.ChildFirst,
		ChildLast:        r.ChildLast,
		ParentFirst:      r.ParentFirst,
		ParentLast:       r.ParentLast,
		HomePhone:        r.HomePhone,
		CellPhone:        r.CellPhone,
		WorkPhone:        r.WorkPhone,
		Address:          profile.Address{Street: r.Street, CityState: r.CityState, Zip: r.Zip},
		Birthday:         r.Birthday,
		EmergencyFirst:   r.EmerFirst,
		EmergencyLast:    r.EmerLast,
		EmergencyAddress: profile.Address{Street: r.EmerStreet, CityState: r.EmerCityState, Zip: r.EmerZip},
		EmergencyPhone:   r.EmerPhone,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		p.LastLogin = r.LastLogin.Time.UTC()
	}
	return p
}

// trapNoRowsErr maps the "no rows" err to profile.ErrNotFound
func (repo profileRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return profile.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo profileRepository) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	if _, err := repo.exec.NamedExecContext(ctx, insertProfileQuery, repo.toRow(p)); err != nil {
		if isUniqueViolation(err) {
			return profile.Profile{}, profile.ErrUsernameExists
		}
		return profile.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return p, nil
}

func (repo profileRepository) GetProfile(ctx context.Context, filter profile.GetFilter) (profile.Profile, error) {
	var (
		where string
		arg   string
	)
	switch {
	case filter.ID != "":
		where, arg = "id = ?", filter.ID
	case filter.Username != "":
		where, arg = "username = ?", filter.Username
	default:
		return profile.Profile{}, profile.ErrNotFound
	}

	var row profileRow
	q := repo.exec.Rebind("SELECT " + profileColumns + " FROM user_profile WHERE " + where)
	if err := repo.exec.GetContext(ctx, &row, q, arg); err != nil {
		return profile.Profile{}, repo.trapNoRowsErr(err, "finding profile")
	}
	return repo.fromRow(row), nil
}

func (repo profileRepository) QueryProfiles(ctx context.Context, filter *profile.QueryFilter, ordering ...core.DBOrdering) ([]profile.Profile, error) {
	var (
		sb   strings.Builder
		args []interface{}
	)
	sb.WriteString("SELECT " + profileColumns + " FROM user_profile")

	if filter != nil && filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		cols := []string{"username", "email", "child_first", "child_last", "parent_first", "parent_last"}
		conds := make([]string, 0, len(cols))
		for _, col := range cols {
			conds = append(conds, "LOWER("+col+") LIKE ?")
			args = append(args, like)
		}
		sb.WriteString(" WHERE " + strings.Join(conds, " OR "))
	}

	orderBy := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if col, ok := orderable[ord.Field]; ok {
			ord.Field = col
			orderBy = append(orderBy, ord.String())
		}
	}
	orderBy = append(orderBy, "username ASC")
	sb.WriteString(" ORDER BY " + strings.Join(orderBy, ", "))

	var rows []profileRow
	if err := repo.exec.SelectContext(ctx, &rows, repo.exec.Rebind(sb.String()), args...); err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}
	profiles := make([]profile.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, repo.fromRow(r))
	}
	return profiles, nil
}

func (repo profileRepository) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	res, err := repo.exec.NamedExecContext(ctx, updateProfileQuery, repo.toRow(p))
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "updating profile")
	}
	if err = checkAffected(res); err != nil {
		return profile.Profile{}, err
	}
	return repo.GetProfile(ctx, profile.GetFilter{ID: p.ID})
}

func (repo profileRepository) UpdatePassword(ctx context.Context, id string, hash []byte, updatedAt time.Time) error {
	q := repo.exec.Rebind("UPDATE user_profile SET password_hash = ?, updated_at = ? WHERE id = ?")
	res, err := repo.exec.ExecContext(ctx, q, string(hash), updatedAt.UTC(), id)
	if err != nil {
		return errors.Wrap(err, "updating password")
	}
	return checkAffected(res)
}

func (repo profileRepository) UpdateLastLogin(ctx context.Context, id string, lastLogin time.Time) error {
	q := repo.exec.Rebind("UPDATE user_profile SET last_login = ? WHERE id = ?")
	res, err := repo.exec.ExecContext(ctx, q, lastLogin.UTC(), id)
	if err != nil {
		return errors.Wrap(err, "updating last login")
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	switch {
	case n == 0:
		return profile.ErrNotFound
	case n > 1:
		return core.NewShutdownError("integrity issue: %d profiles updated by id", n)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE/PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
			strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}
