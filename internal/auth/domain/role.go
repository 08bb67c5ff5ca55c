package domain

import (
	"errors"
	"fmt"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleStoreOwner Role = "STORE_OWNER"
	RoleAdmin      Role = "ADMIN"
)

// DefaultRole is assigned on self-registration.
const DefaultRole = RoleCustomer

var ErrUnknownRole = errors.New("domain: unknown role")

// Roles lists every role, lowest privilege first.
func Roles() []Role {
	return []Role{RoleCustomer, RoleStoreOwner, RoleAdmin}
}

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCustomer, RoleStoreOwner, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string { return string(r) }
