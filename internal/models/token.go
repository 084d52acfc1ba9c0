package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the payload of the browser session token.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Cedula    string `json:"cedula"`
	Role      Role   `json:"rol"`
	jwt.RegisteredClaims
}
