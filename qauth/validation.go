package qauth

import (
	"fmt"
	"regexp"
	"strings"
)

// validUsernameRegex matches valid usernames.
// Must start with an alphanumeric character and be 1-49 characters long.
var validUsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.@-]{0,48}$`)

// maxPasswordLen is the longest password bcrypt accepts.
const maxPasswordLen = 72

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username cannot be empty", ErrInvalidAccount)
	}
	if !validUsernameRegex.MatchString(username) {
		return fmt.Errorf("%w: invalid username %q: must contain only alphanumeric characters and _.@-, start with alphanumeric, and be 1-49 characters", ErrInvalidAccount, username)
	}
	return nil
}

func validatePassword(password string) error {
	switch {
	case password == "":
		return fmt.Errorf("%w: password cannot be empty", ErrInvalidAccount)
	case len(password) > maxPasswordLen:
		return fmt.Errorf("%w: password longer than %d bytes", ErrInvalidAccount, maxPasswordLen)
	case strings.ContainsFunc(password, isSpace):
		return fmt.Errorf("%w: password cannot contain whitespace", ErrInvalidAccount)
	}
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}
