package domain

import "time"

// AuthContext identifies the admin behind a request. The zero value is anonymous.
type AuthContext struct {
	AdminID   string
	Email     string
	SessionID string
	ExpiresAt time.Time
}

func (a AuthContext) Authenticated() bool { return a.AdminID != "" && a.SessionID != "" }

// Require gates every admin operation.
func (a AuthContext) Require() error {
	if !a.Authenticated() {
		return ErrUnauthorized
	}
	return nil
}
