package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleStudent    Role = "student"
	RoleReviewer   Role = "reviewer"
	RoleInstructor Role = "instructor"
	RoleStaff      Role = "staff"
)

// AllRoles lists every role the platform knows about, in encoding order.
var AllRoles = []Role{RoleAdmin, RoleStudent, RoleReviewer, RoleInstructor, RoleStaff}

// RoleSet is a fixed five-position flag set over the platform roles.
// A user may hold any combination of roles at once.
type RoleSet uint8

const (
	roleAdminBit RoleSet = 1 << iota
	roleStudentBit
	roleReviewerBit
	roleInstructorBit
	roleStaffBit
)

var roleBits = map[Role]RoleSet{
	RoleAdmin:      roleAdminBit,
	RoleStudent:    roleStudentBit,
	RoleReviewer:   roleReviewerBit,
	RoleInstructor: roleInstructorBit,
	RoleStaff:      roleStaffBit,
}

// NewRoleSet builds a RoleSet from the given roles. Unknown roles are ignored;
// use ParseRoleSet when the input needs validation.
func NewRoleSet(roles ...Role) RoleSet {
	var rs RoleSet
	for _, r := range roles {
		rs |= roleBits[r]
	}
	return rs
}

// ParseRoleSet builds a RoleSet from role names, rejecting unknown names.
func ParseRoleSet(names []string) (RoleSet, error) {
	var rs RoleSet
	for _, name := range names {
		bit, ok := roleBits[Role(strings.ToLower(strings.TrimSpace(name)))]
		if !ok {
			return 0, fmt.Errorf("unknown role %q", name)
		}
		rs |= bit
	}
	return rs, nil
}

func (rs RoleSet) Has(r Role) bool    { return rs&roleBits[r] != 0 }
func (rs RoleSet) IsAdmin() bool      { return rs.Has(RoleAdmin) }
func (rs RoleSet) IsStudent() bool    { return rs.Has(RoleStudent) }
func (rs RoleSet) IsReviewer() bool   { return rs.Has(RoleReviewer) }
func (rs RoleSet) IsInstructor() bool { return rs.Has(RoleInstructor) }
func (rs RoleSet) IsStaff() bool      { return rs.Has(RoleStaff) }
func (rs RoleSet) IsEmpty() bool      { return rs == 0 }

// With returns a copy of the set with the given roles added.
func (rs RoleSet) With(roles ...Role) RoleSet {
	for _, r := range roles {
		rs |= roleBits[r]
	}
	return rs
}

// Without returns a copy of the set with the given roles removed.
func (rs RoleSet) Without(roles ...Role) RoleSet {
	for _, r := range roles {
		rs &^= roleBits[r]
	}
	return rs
}

// Union merges two sets.
func (rs RoleSet) Union(other RoleSet) RoleSet { return rs | other }

// Intersects reports whether the two sets share at least one role bit.
// The role-request dedup check is built on this.
func (rs RoleSet) Intersects(other RoleSet) bool { return rs&other != 0 }

// Roles returns the member roles in encoding order.
func (rs RoleSet) Roles() []Role {
	roles := make([]Role, 0, len(AllRoles))
	for _, r := range AllRoles {
		if rs.Has(r) {
			roles = append(roles, r)
		}
	}
	return roles
}

func (rs RoleSet) String() string {
	names := make([]string, 0, len(AllRoles))
	for _, r := range rs.Roles() {
		names = append(names, string(r))
	}
	return strings.Join(names, ",")
}

// Value encodes the set as a comma-joined list of role names in encoding
// order. ParseRoleSet(strings.Split(v, ",")) round-trips every value.
func (rs RoleSet) Value() (driver.Value, error) {
	return rs.String(), nil
}

// Scan decodes the stable encoding produced by Value.
func (rs *RoleSet) Scan(value interface{}) error {
	var encoded string
	switch v := value.(type) {
	case nil:
		*rs = 0
		return nil
	case string:
		encoded = v
	case []byte:
		encoded = string(v)
	default:
		return fmt.Errorf("cannot scan %T into RoleSet", value)
	}
	if encoded == "" {
		*rs = 0
		return nil
	}
	parsed, err := ParseRoleSet(strings.Split(encoded, ","))
	if err != nil {
		return fmt.Errorf("invalid role set encoding %q: %w", encoded, err)
	}
	*rs = parsed
	return nil
}

func (rs RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(rs.Roles())
}

func (rs *RoleSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParseRoleSet(names)
	if err != nil {
		return err
	}
	*rs = parsed
	return nil
}

type User struct {
	UserName     string  `json:"user_name" gorm:"primaryKey;size:32"`
	PasswordHash string  `json:"-" gorm:"not null;size:100"`
	FirstName    string  `json:"first_name" gorm:"size:50"`
	LastName     string  `json:"last_name" gorm:"size:50"`
	Email        string  `json:"email" gorm:"index;not null;size:255"`
	Roles        RoleSet `json:"roles" gorm:"type:varchar(64);not null;default:''"`
	IsMuted      bool    `json:"is_muted" gorm:"not null;default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// FullName is the display name used by the presentation layer.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
