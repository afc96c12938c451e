package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID        uuid.UUID
	ClinicID  uuid.UUID
	FirstName string
	LastName  *string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName composes the stored name the same way submitted names are
// compared during identity resolution.
func (p *Patient) FullName() string {
	if p.LastName == nil || *p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + *p.LastName
}

type PhoneType string

const (
	PhonePrimary   PhoneType = "primary"
	PhoneSecondary PhoneType = "secondary"
	PhoneEmergency PhoneType = "emergency"
	PhoneFamily    PhoneType = "family"
)

type PatientPhone struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	Phone     string
	Type      PhoneType
	IsPrimary bool
	CreatedAt time.Time
}

// NameParts is the result of splitting a submitted full name.
type NameParts struct {
	First string
	Last  *string
}

var titles = map[string]struct{}{
	"dr.": {}, "dr": {},
	"mr.": {}, "mr": {},
	"mrs.": {}, "mrs": {},
	"ms.": {}, "ms": {},
	"prof.": {}, "prof": {},
}

// SplitName applies the name-splitting heuristic: trim, collapse whitespace,
// then assign first/last by token count. A leading title on a three-token
// name is dropped; otherwise extra tokens fold into the last name.
func SplitName(full string) NameParts {
	tokens := strings.Fields(full)

	switch len(tokens) {
	case 0:
		return NameParts{}
	case 1:
		return NameParts{First: tokens[0]}
	case 2:
		return NameParts{First: tokens[0], Last: &tokens[1]}
	case 3:
		if _, ok := titles[strings.ToLower(tokens[0])]; ok {
			return NameParts{First: tokens[1], Last: &tokens[2]}
		}
		last := tokens[1] + " " + tokens[2]
		return NameParts{First: tokens[0], Last: &last}
	default:
		last := strings.Join(tokens[1:], " ")
		return NameParts{First: tokens[0], Last: &last}
	}
}

// NormalizeName lowercases and collapses whitespace for equality checks.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
