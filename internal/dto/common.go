package dto

import "github.com/golang-jwt/jwt/v5"

// Roles carried in access tokens.
const (
	RoleProvider = "provider"
	RoleCustomer = "customer"
)

// AuthClaims defines the custom claims for JWT.
type AuthClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports dependency status.
// @Description Health check result
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
