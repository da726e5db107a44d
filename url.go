package credman

import (
	"net/url"

	"github.com/pkg/errors"
)

// BuildURL injects credentials into the authority of a base URL, preserving
// its scheme, path, and query. A token takes precedence over a password
// when both are given. The base URL is returned unchanged when there is no
// username or no secret to pair it with.
func BuildURL(baseURL, username, password, token string) (string, error) {
	secret := token
	if secret == "" {
		secret = password
	}
	if username == "" || secret == "" {
		return baseURL, nil
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.Wrap(err, "parsing base URL")
	}

	parsed.User = url.UserPassword(username, secret)

	return parsed.String(), nil
}
