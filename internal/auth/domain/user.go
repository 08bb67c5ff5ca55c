package domain

import "time"

type User struct {
	ID           string
	Email        string // stored lower-cased
	Username     string // case-sensitive
	PasswordHash string // bcrypt encoded
	FirstName    string
	LastName     string
	Role         Role
	IsActive     bool
	Phone        *string
	Address      *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IdentitySnapshot is the subset of a user that is embedded in tokens. It is
// never persisted.
type IdentitySnapshot struct {
	ID        string
	Email     string
	Username  string
	Role      Role
	FirstName string
	LastName  string
}

func (u User) Snapshot() IdentitySnapshot {
	return IdentitySnapshot{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// ProfileUpdate carries the mutable profile fields. A nil field is left
// untouched; an empty Phone or Address clears it.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *string
}

// Apply returns u with the update applied. UpdatedAt is left to the caller.
func (p ProfileUpdate) Apply(u User) User {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Phone != nil {
		u.Phone = clearable(*p.Phone)
	}
	if p.Address != nil {
		u.Address = clearable(*p.Address)
	}
	return u
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil && p.Address == nil
}

func clearable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
