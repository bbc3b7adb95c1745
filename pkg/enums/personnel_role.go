package enums

import "fmt"

// PersonnelRole is the capacity in which an employee works on an order.
type PersonnelRole string

const (
	PersonnelRoleTechnician PersonnelRole = "technician"
	PersonnelRoleCertifier  PersonnelRole = "certifier"
)

var validPersonnelRoles = []PersonnelRole{
	PersonnelRoleTechnician,
	PersonnelRoleCertifier,
}

// String implements fmt.Stringer.
func (r PersonnelRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known PersonnelRole.
func (r PersonnelRole) IsValid() bool {
	for _, candidate := range validPersonnelRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParsePersonnelRole converts raw input into a PersonnelRole.
func ParsePersonnelRole(value string) (PersonnelRole, error) {
	for _, candidate := range validPersonnelRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid personnel role %q", value)
}
