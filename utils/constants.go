package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the default time-to-live for access tokens (15 minutes)
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the default time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// EmailVerificationTTL is how long an emailed verification link stays valid
	EmailVerificationTTL = 24 * time.Hour

	// RequestTimeout bounds a single flow invocation from a handler
	RequestTimeout = 30 * time.Second
)

// Cookie names used at the transport boundary
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Login rate limiting defaults
const (
	DefaultMaxFailedLogins = 5
	DefaultLoginWindow     = 15 * time.Minute
	DefaultLoginLockout    = 15 * time.Minute
)
