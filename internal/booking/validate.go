package booking

import (
	"regexp"
	"strings"
)

var (
	mobileRe = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// NormalizePhone strips punctuation and an optional trunk zero or 91 country
// prefix, then requires a 10-digit local mobile number.
func NormalizePhone(raw string) (string, *ValidationError) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()

	if len(d) == 12 && strings.HasPrefix(d, "91") {
		d = d[2:]
	}
	if len(d) == 11 && strings.HasPrefix(d, "0") {
		d = d[1:]
	}

	if !mobileRe.MatchString(d) {
		return "", &ValidationError{Field: "phone", Message: "must be a valid 10-digit mobile number"}
	}
	return d, nil
}

type patientInput struct {
	name  string
	phone string
	email string
}

func validatePatientInput(name, phone, email string) (patientInput, *ValidationError) {
	in := patientInput{
		name:  strings.Join(strings.Fields(name), " "),
		email: strings.TrimSpace(email),
	}

	if in.name == "" {
		return patientInput{}, &ValidationError{Field: "name", Message: "is required"}
	}

	normalized, vErr := NormalizePhone(phone)
	if vErr != nil {
		return patientInput{}, vErr
	}
	in.phone = normalized

	if in.email != "" && !emailRe.MatchString(in.email) {
		return patientInput{}, &ValidationError{Field: "email", Message: "is not a valid address"}
	}

	return in, nil
}
