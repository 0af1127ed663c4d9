package model

import "fmt"

// Role is the closed set of user roles. Handlers never compare raw strings;
// everything goes through this type.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
)

func (r Role) IsValid() bool {
	return r == RoleTenant || r == RoleLandlord
}

func (r Role) String() string {
	return string(r)
}

func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return role, nil
}
