package validators

import (
	"errors"
	"strings"
)

var ErrMissingToken = errors.New("missing bearer token")

// BearerToken extracts the token from an Authorization header value. A
// bare token without the scheme is accepted.
func BearerToken(raw string) (string, error) {
	token := strings.TrimSpace(raw)
	if scheme, rest, ok := strings.Cut(token, " "); ok && strings.EqualFold(scheme, "bearer") {
		token = strings.TrimSpace(rest)
	} else if strings.EqualFold(token, "bearer") {
		token = ""
	}
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
