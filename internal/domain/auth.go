package domain

import "time"

// Session is the outcome of a successful login.
type Session struct {
	Account   *Account
	Token     string
	ExpiresAt time.Time
}
