package helpers

import "strings"

// NicknameFromEmail derives a nickname candidate from an email address by
// replacing every character that is not an ASCII letter or digit with '-'.
// The result is neither trimmed nor checked for uniqueness.
func NicknameFromEmail(email string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '-'
	}, email)
}
