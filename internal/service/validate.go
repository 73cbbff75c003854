package service

import "regexp"

// Same level of strictness as the usual framework "email" rule: one @, no
// whitespace, a dot somewhere in the domain.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validEmail(email string) bool {
	return len(email) <= 255 && emailPattern.MatchString(email)
}
