package model

import "errors"

// Token errors
var (
	ErrTokenMissing = errors.New("authentication token missing")
	ErrTokenExpired = errors.New("authentication token expired")
	ErrTokenInvalid = errors.New("authentication token invalid")
)

// Token API error codes (used in HTTP responses)
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)
