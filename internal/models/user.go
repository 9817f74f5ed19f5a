package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles double as capabilities: an operation gated on "entrepreneur"
// is allowed for users whose role is entrepreneur (or admin).
const (
	RoleAdmin        = "admin"
	RoleStaff        = "staff"
	RoleOrganization = "organization"
	RoleEntrepreneur = "entrepreneur"
	RoleFreelancer   = "freelancer"
	RoleUser         = "user"
	RoleParent       = "parent"
)

var Roles = []string{RoleAdmin, RoleStaff, RoleOrganization, RoleEntrepreneur, RoleFreelancer, RoleUser, RoleParent}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

func (s UserStatus) String() string {
	return string(s)
}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           string     `json:"id" db:"id"`
	FullName     string     `json:"full_name" db:"full_name"`
	Email        string     `json:"email" db:"email"`
	PhoneNumber  string     `json:"phone_number" db:"phone_number"`
	PasswordHash []byte     `json:"-" db:"password_hash"`
	Role         string     `json:"role" db:"role"`
	Status       UserStatus `json:"status" db:"status"`
	Designation  string     `json:"designation" db:"designation"`
	ProfilePic   string     `json:"profile_pic" db:"profile_pic"`
	Skills       []string   `json:"skills" db:"skills"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsActive() bool {
	return u.Status != UserStatusSuspended
}

// Summary is the identity projection embedded in other resources.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FullName: u.FullName, ProfilePic: u.ProfilePic}
}

// HasCapability is the single authorization predicate used by every gated operation.
// Suspended users hold no capability; admins hold all of them.
func HasCapability(u *User, capability string) bool {
	if u == nil || !u.IsActive() {
		return false
	}
	return u.Role == capability || u.Role == RoleAdmin
}

// UserSummary is the name + avatar projection of a user.
type UserSummary struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	ProfilePic string `json:"profile_pic,omitempty"`
}

type UserFilter struct {
	Search string
	Limit  int
	Offset int
}
