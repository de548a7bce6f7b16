package domain

import "time"

// Session binds an opaque login token to a user.
type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the session is past its expiry at the given instant.
// Sessions without an expiry never expire.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}
