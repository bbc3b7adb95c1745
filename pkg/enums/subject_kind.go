package enums

import "fmt"

// SubjectKind discriminates what a work order is performed on.
type SubjectKind string

const (
	SubjectKindAircraft  SubjectKind = "aircraft"
	SubjectKindComponent SubjectKind = "component"
)

var validSubjectKinds = []SubjectKind{
	SubjectKindAircraft,
	SubjectKindComponent,
}

// String implements fmt.Stringer.
func (k SubjectKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known SubjectKind.
func (k SubjectKind) IsValid() bool {
	for _, candidate := range validSubjectKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseSubjectKind converts raw input into a SubjectKind.
func ParseSubjectKind(value string) (SubjectKind, error) {
	for _, candidate := range validSubjectKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subject kind %q", value)
}
