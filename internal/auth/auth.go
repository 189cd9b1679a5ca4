// Package auth validates request credentials against the SHA-512 token
// scheme existing clients sign with.
package auth

import (
	"crypto/sha512"
	"encoding/hex"
	"time"

	"github.com/scorelayer/scoring/internal/config"
)

// hourStampLayout renders the current time at hour resolution; admin tokens
// are only valid within the hour they were derived in.
const hourStampLayout = "2006010215"

// Credentials is the identity triple extracted from a request envelope.
type Credentials struct {
	Account string
	Login   string
	Token   string
}

// Authenticator checks credentials. It is stateless apart from its salts
// and safe for concurrent use.
type Authenticator struct {
	salt       string
	adminSalt  string
	adminLogin string
	now        func() time.Time
}

// Option adjusts an Authenticator.
type Option func(*Authenticator)

// WithClock substitutes the time source. Intended for tests of the hourly
// admin token window.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// New builds an Authenticator from the auth configuration.
func New(cfg config.AuthConfig, opts ...Option) *Authenticator {
	a := &Authenticator{
		salt:       cfg.Salt,
		adminSalt:  cfg.AdminSalt,
		adminLogin: cfg.AdminLogin,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IsAdmin reports whether the login is the admin identity.
func (a *Authenticator) IsAdmin(login string) bool {
	return login == a.adminLogin
}

// Check reports whether the supplied token matches the expected digest.
// A false result is an ordinary outcome, not an error; callers map it to a
// forbidden response without detail.
func (a *Authenticator) Check(c Credentials) bool {
	return a.ExpectedToken(c.Account, c.Login) == c.Token
}

// ExpectedToken derives the digest a caller must present. Admin tokens are
// derived from the current hour stamp, all others from account+login.
func (a *Authenticator) ExpectedToken(account, login string) string {
	var phrase string
	if a.IsAdmin(login) {
		phrase = a.now().Format(hourStampLayout) + a.adminSalt
	} else {
		phrase = account + login + a.salt
	}
	sum := sha512.Sum512([]byte(phrase))
	return hex.EncodeToString(sum[:])
}
