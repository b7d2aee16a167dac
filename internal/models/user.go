package models

import "github.com/golang-jwt/jwt/v4"

// Role is the caller's role as asserted by the authentication layer. User
// accounts themselves live outside this service; we only ever see the
// identity and role carried in the token.
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
