package profile

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/yellowsub/core"
)

type Address struct {
	Street    string `json:"street"`
	CityState string `json:"city_state"`
	Zip       string `json:"zip"`
}

// Profile is the enrollment record of a family: the account credentials,
// the child, the parent and an emergency contact.
type Profile struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	PasswordHash     []byte    `json:"-"`
	Email            string    `json:"email"`
	ChildFirst       string    `json:"child_first"`
	ChildLast        string    `json:"child_last"`
	ParentFirst      string    `json:"parent_first"`
	ParentLast       string    `json:"parent_last"`
	HomePhone        string    `json:"home_phone"`
	CellPhone        string    `json:"cell_phone"`
	WorkPhone        string    `json:"work_phone"`
	Address          Address   `json:"address"`
	Birthday         string    `json:"birthday"`
	EmergencyFirst   string    `json:"emergency_first"`
	EmergencyLast    string    `json:"emergency_last"`
	EmergencyAddress Address   `json:"emergency_address"`
	EmergencyPhone   string    `json:"emergency_phone"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at"` // UTC
	LastLogin        time.Time `json:"last_login"` // UTC
}

func (p *Profile) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return ErrPasswordTooLong
	}
	if err != nil {
		return err
	}
	p.PasswordHash = hash
	return nil
}

func (p *Profile) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(pwd))
}

// NewProfile contains information needed to register a new Profile.
type NewProfile struct {
	Username        string `form:"username" validate:"required,max=64,username"`
	Password        string `form:"password" validate:"required,max=72"`
	ConfirmPassword string `form:"confirmPassword"`
	Email           string `form:"email" validate:"omitempty,email"`
	ConfirmEmail    string `form:"confirmEmail"`
	ChildFirst      string `form:"childFirst"`
	ChildLast       string `form:"childLast"`
}

// Validate cleans the input, then checks the confirmations before the field rules.
// Confirmations must match exactly; emails are lowercased afterwards.
func (np *NewProfile) Validate(v *core.Validator) error {
	np.Username = core.CleanString(np.Username, true /* lower */)
	np.Email = core.CleanString(np.Email)
	np.ConfirmEmail = core.CleanString(np.ConfirmEmail)
	np.ChildFirst = core.CleanString(np.ChildFirst)
	np.ChildLast = core.CleanString(np.ChildLast)

	if np.ConfirmEmail != np.Email {
		return ErrEmailMismatch
	}
	if np.ConfirmPassword != np.Password {
		return ErrPasswordMismatch
	}
	np.Email = strings.ToLower(np.Email)
	np.ConfirmEmail = np.Email
	return v.Struct(np)
}

// UpdateProfile holds every editable field of a Profile. Updates replace all of them.
type UpdateProfile struct {
	Email         string `form:"parentEmail"`
	ChildFirst    string `form:"childFirst"`
	ChildLast     string `form:"childLast"`
	ParentFirst   string `form:"parentFirst"`
	ParentLast    string `form:"parentLast"`
	HomePhone     string `form:"homePhone"`
	CellPhone     string `form:"cellPhone"`
	WorkPhone     string `form:"workPhone"`
	Street        string `form:"streetAddr"`
	CityState     string `form:"cityState"`
	Zip           string `form:"zip"`
	Birthday      string `form:"birthday"`
	EmerFirst     string `form:"emerFirst"`
	EmerLast      string `form:"emerLast"`
	EmerStreet    string `form:"emerAddr"`
	EmerCityState string `form:"emerCityState"`
	EmerZip       string `form:"emerZip"`
	EmerPhone     string `form:"emerPhone"`
}

func (up UpdateProfile) apply(p *Profile) {
	p.Email = up.Email
	p.ChildFirst = up.ChildFirst
	p.ChildLast = up.ChildLast
	p.ParentFirst = up.ParentFirst
	p.ParentLast = up.ParentLast
	p.HomePhone = up.HomePhone
	p.CellPhone = up.CellPhone
	p.WorkPhone = up.WorkPhone
	p.Address = Address{Street: up.Street, CityState: up.CityState, Zip: up.Zip}
	p.Birthday = up.Birthday
	p.EmergencyFirst = up.EmerFirst
	p.EmergencyLast = up.EmerLast
	p.EmergencyAddress = Address{Street: up.EmerStreet, CityState: up.EmerCityState, Zip: up.EmerZip}
	p.EmergencyPhone = up.EmerPhone
}

// GetFilter selects a single Profile; the first non-empty field wins.
type GetFilter struct {
	ID       string
	Username string
}

type QueryFilter struct {
	Search string // case-insensitive match on username, email, child or parent names
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
