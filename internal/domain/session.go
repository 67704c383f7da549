package domain

import "time"

// Session is the verified content of a bearer token. It is never stored.
type Session struct {
	Subject   string    // email of the authenticated user
	IssuedAt  time.Time
	ExpiresAt time.Time
}
