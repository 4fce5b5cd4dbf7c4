package runes

import "github.com/pkg/errors"

// ToInt converts an ASCII digit rune to its integer value.
//
// Origin:
//   https://codereview.stackexchange.com/questions/122831/parse-numerals-from-a-string-in-golang/122931#122931
//   https://codereview.stackexchange.com/users/13970/peterso
//
// Changes:
//   - Migrate to github.com/pkg/errors
//   - Compare against the '0'..'9' range instead of looping over it.
//   - Include the rune in the error.
func ToInt(r rune) (int, error) {
	if r < '0' || r > '9' {
		return -1, errors.Errorf("failed to find digit equivalent of rune [%q]", r)
	}
	return int(r - '0'), nil
}
