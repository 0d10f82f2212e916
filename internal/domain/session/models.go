package session

import (
	"strings"
	"time"
)

type Role struct {
	RoleID   int    `json:"roleId"`
	RoleName string `json:"roleName"`
}

// User is the identity the HR backend returns on login.
type User struct {
	UserID     int    `json:"userId"`
	EmployeeID int    `json:"employeeId"`
	RoleID     int    `json:"roleId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Username   string `json:"username"`
	Roles      []Role `json:"roles"`
}

func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u User) RoleName() string {
	for _, role := range u.Roles {
		if role.RoleID == u.RoleID {
			return role.RoleName
		}
	}
	if len(u.Roles) > 0 {
		return u.Roles[0].RoleName
	}
	return ""
}

// Session is an authenticated evaluator. Token is the backend bearer token and
// is never serialized.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// StoredSession is the at-rest form of a session.
type StoredSession struct {
	ID        string
	User      User
	TokenEnc  []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Credentials is the backend login response.
type Credentials struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// LoginResult is handed back to the client after a successful login.
type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        User      `json:"user"`
	Permissions []string  `json:"permissions"`
}
