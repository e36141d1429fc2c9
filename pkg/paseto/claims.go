package pasetotoken

import (
	"time"

	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Custom claim names carried next to the registered ones.
const (
	claimType    = "typ"
	claimUser    = "uid"
	claimSession = "sid"
)

// Claims is what a verified token says about its bearer.
type Claims struct {
	Type      TokenType
	UserID    uuid.UUID
	SessionID *uuid.UUID

	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c *Claims) IsExpired() bool {
	return !c.ExpiresAt.After(time.Now())
}
