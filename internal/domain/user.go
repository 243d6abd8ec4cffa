package domain

import (
	"errors"
	"strings"
	"time"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "Active"
	UserStatusInactive UserStatus = "Inactive"
)

type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "Active"
	EmployeeStatusInactive EmployeeStatus = "Inactive"
)

// AdministratorTitle is the job title given to users provisioned by the CLI.
const AdministratorTitle = "Administrator"

// ErrEmptyUsername is returned when a user is built without a login name.
var ErrEmptyUsername = errors.New("username is required")

// User mirrors a row of the CRM users table.
type User struct {
	ID                      string
	UserName                string
	FirstName               string
	LastName                string
	Title                   string
	Status                  UserStatus
	EmployeeStatus          EmployeeStatus
	IsAdmin                 bool
	UserHash                string
	SystemGeneratedPassword bool
	PasswordLastChanged     *time.Time
	Deleted                 bool
	DateEntered             time.Time
	DateModified            time.Time
}

// NewAdministrator builds an active user titled Administrator whose display
// name fields are all derived from the username.
func NewAdministrator(username string, isAdmin bool) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrEmptyUsername
	}
	return &User{
		UserName:       username,
		FirstName:      username,
		LastName:       username,
		Title:          AdministratorTitle,
		Status:         UserStatusActive,
		EmployeeStatus: EmployeeStatusActive,
		IsAdmin:        isAdmin,
	}, nil
}

// Active reports whether the user can log in.
func (u *User) Active() bool {
	return u.Status == UserStatusActive && !u.Deleted
}
