package models

import (
	"strings"
)

// Role is a user's access level
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleEditor     Role = "EDITOR"
	RoleViewer     Role = "VIEWER"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return oneOf(r, RoleSuperAdmin, RoleAdmin, RoleEditor, RoleViewer)
}

// User account statuses
const (
	UserActive    = "active"
	UserSuspended = "suspended"
)

// User is a console account. Password is input only; the stored form is PasswordHash.
type User struct {
	Base
	Name         string      `gorm:"size:255;not null" json:"name"`
	Username     string      `gorm:"size:128;not null;index" json:"username"`
	Password     string      `gorm:"-" json:"password,omitempty"`
	PasswordHash string      `gorm:"size:255;not null" json:"-"`
	Role         Role        `gorm:"size:16;not null" json:"role"`
	Status       string      `gorm:"size:16;not null;default:active" json:"status"`
	Permissions  Permissions `json:"permissions"`
}

// TableName overrides the table name for User
func (User) TableName() string { return string(Users) }

func (*User) Collection() Collection { return Users }

func (u *User) ApplyDefaults() {
	if u.Status == "" {
		u.Status = UserActive
	}
	if u.Permissions == nil {
		u.Permissions = Permissions{}
	}
}

// Prepare hashes a supplied password and clears the plaintext
func (u *User) Prepare(hash func(string) (string, error)) error {
	if u.Password == "" {
		return nil
	}
	hashed, err := hash(u.Password)
	if err != nil {
		return err
	}
	u.PasswordHash = hashed
	u.Password = ""
	return nil
}

func (u *User) Secret() string { return u.PasswordHash }

func (u *User) SetSecret(s string) {
	if u.PasswordHash == "" {
		u.PasswordHash = s
	}
}

func (u *User) Validate() error {
	switch {
	case strings.TrimSpace(u.Name) == "":
		return invalid(Users, "name is required")
	case strings.TrimSpace(u.Username) == "":
		return invalid(Users, "username is required")
	case !u.Role.Valid():
		return invalid(Users, "role %q is not valid", u.Role)
	case !oneOf(u.Status, UserActive, UserSuspended):
		return invalid(Users, "status %q is not one of active, suspended", u.Status)
	case u.PasswordHash == "" && u.Password == "":
		return invalid(Users, "password is required")
	}
	return nil
}

// Identity returns the session view of the account
func (u *User) Identity() *Identity {
	return &Identity{
		ID:          u.ID,
		Name:        u.Name,
		Username:    u.Username,
		Role:        u.Role,
		Status:      u.Status,
		Permissions: u.Permissions,
	}
}

// Identity is the acting or authenticated user as seen by the store
type Identity struct {
	ID          uint64      `json:"id"`
	Name        string      `json:"name"`
	Username    string      `json:"username"`
	Role        Role        `json:"role"`
	Status      string      `json:"status"`
	Permissions Permissions `json:"permissions,omitempty"`
}

// Guest is the identity used when no session exists
var Guest = Identity{Name: "Guest", Role: RoleViewer}

// ActorOrGuest returns id or the guest identity when id is nil
func ActorOrGuest(id *Identity) *Identity {
	if id == nil {
		g := Guest
		return &g
	}
	return id
}
