package pasetotoken

import "fmt"

// ErrConfig reports unusable keys or manager settings. It is a startup
// error, never a client error.
type ErrConfig struct{ Msg string }

func (e ErrConfig) Error() string { return "paseto: " + e.Msg }

// ErrInvalidToken covers bad signatures, expired tokens, foreign issuers
// and malformed claims alike.
type ErrInvalidToken struct{ Err error }

func (e ErrInvalidToken) Error() string { return fmt.Sprintf("paseto: invalid token: %v", e.Err) }
func (e ErrInvalidToken) Unwrap() error { return e.Err }
