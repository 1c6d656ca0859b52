package writer

import "errors"

// ErrNoCredential is returned before any connection is attempted when
// neither a nickname nor a token was supplied.
var ErrNoCredential = errors.New("user credentials are not given (should be set either nickname or auth token)")

// Credential is the identity the writer starts from. A token always wins;
// a nickname alone triggers registration.
type Credential struct {
	Nickname string
	Token    string
}

// Validate reports ErrNoCredential when both fields are empty.
func (c Credential) Validate() error {
	if c.Nickname == "" && c.Token == "" {
		return ErrNoCredential
	}
	return nil
}

// NeedsRegistration reports whether a token must be obtained first.
func (c Credential) NeedsRegistration() bool {
	return c.Token == ""
}
