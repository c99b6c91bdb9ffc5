// Package auth provides legajo login, role assignment and cookie sessions.
// There is no password: a legajo is an identifier, not a secret.
package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidLegajo means the login input is not a legajo.
var ErrInvalidLegajo = errors.New("legajo must be numeric")

// Role decides which views a user sees.
type Role string

const (
	RoleRepresentative Role = "representative"
	RoleManager        Role = "manager"
)

// IsValid checks if a role is recognized.
func (r Role) IsValid() bool {
	return r == RoleRepresentative || r == RoleManager
}

// Identity is the logged-in user for one request.
type Identity struct {
	Legajo string `json:"legajo"`
	Role   Role   `json:"role"`
}

// IsManager reports whether the identity has the manager role.
func (i Identity) IsManager() bool { return i.Role == RoleManager }

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by RequireAuth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// ParseLegajo validates raw login input. Only ASCII digits are accepted;
// leading zeros are dropped so "055032" and "55032" are the same user.
func ParseLegajo(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrInvalidLegajo
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return "", ErrInvalidLegajo
		}
	}
	if s = strings.TrimLeft(s, "0"); s == "" {
		s = "0"
	}
	return s, nil
}

// Roles assigns roles from a fixed manager allow-list.
type Roles struct {
	managers map[string]bool
}

// NewRoles creates a role table. Allow-list entries are normalized like
// login input; invalid entries are ignored.
func NewRoles(managers []string) *Roles {
	r := &Roles{managers: make(map[string]bool, len(managers))}
	for _, m := range managers {
		if legajo, err := ParseLegajo(m); err == nil {
			r.managers[legajo] = true
		}
	}
	return r
}

// Login validates raw input and resolves the user's role.
func (r *Roles) Login(raw string) (Identity, error) {
	legajo, err := ParseLegajo(raw)
	if err != nil {
		return Identity{}, err
	}
	role := RoleRepresentative
	if r.managers[legajo] {
		role = RoleManager
	}
	return Identity{Legajo: legajo, Role: role}, nil
}
