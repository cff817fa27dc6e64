package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

var AllRoles = []string{RoleUser, RoleAdmin, RoleSuperAdmin}

// AssignableRoles are the roles an admin may hand out; super_admin is seeded only.
var AssignableRoles = []string{RoleUser, RoleAdmin}

type User struct {
	ID            int       `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Grade         string    `json:"grade,omitempty"`
	Role          string    `json:"role"`
	VisibleInList bool      `json:"visible_in_list"`
	PasswordHash  []byte    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports whether the user holds any administrative role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
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

type NewUser struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Grade     string `json:"grade"`
	Role      string `json:"role" validate:"required,assignablerole"`
	Password  string `json:"password" validate:"required,pwdminlen,pwdcplx"`
}

type UpdateUser struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Grade         string `json:"grade"`
	Role          string `json:"role" validate:"omitempty,assignablerole"`
	VisibleInList *bool  `json:"visible_in_list"`
	Password      string `json:"password" validate:"omitempty,pwdminlen,pwdcplx"`
}
