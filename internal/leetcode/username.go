package leetcode

import (
	"fmt"
	"regexp"
	"strings"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("invalid username %q", username)
	}
	return nil
}

// CaseVariant returns the lowercased username and whether it differs from
// the input. Usernames are case-insensitive upstream but lookups are not.
func CaseVariant(username string) (string, bool) {
	lower := strings.ToLower(username)
	return lower, lower != username
}
