package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims identify a dialer operator. Tokens are minted from shared keys, so
// Operator is a display name and Role is the only thing access hangs on.
type Claims struct {
	jwt.RegisteredClaims

	Operator  string    `json:"operator"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}

// Validate is run by the jwt parser after the registered claims pass.
func (c Claims) Validate() error {
	if c.Operator == "" {
		return errors.New("operator missing")
	}
	if c.Role != RoleAdmin && c.Role != RoleAgent {
		return errors.New("unknown role")
	}
	return nil
}
