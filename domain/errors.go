package domain

import "errors"

var (
	ErrUserNotFound      = errors.New("user-not-found")
	ErrDuplicateUsername = errors.New("duplicate-username")

	ErrInvalidSigningAlg     = errors.New("invalid-signing-algorithm")
	ErrInvalidTokenSignature = errors.New("invalid-token-signature")
	ErrCorruptedToken        = errors.New("corrupted-token")
	ErrExpiredToken          = errors.New("expired-token")

	UnexpectedDatabaseError               = errors.New("unexpected database error")
	UnexpectedPasswordHashComparisonError = errors.New("unexpected password hash comparison error")
	UnexpectedTokenGenerationError        = errors.New("unexpected token generation error")
)
