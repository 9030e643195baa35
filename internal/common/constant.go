// Package common contains shared constants and sentinel errors used across
// trackshare components.
package common

import "time"

// DefaultSessionCookieName is the cookie that carries the session token.
const DefaultSessionCookieName = "session"

// DefaultSessionValidity is how long an issued session token (and its cookie) lives.
const DefaultSessionValidity = 24 * time.Hour

// DefaultVerificationValidity is how long an e-mail verification code stays valid.
const DefaultVerificationValidity = 24 * time.Hour
