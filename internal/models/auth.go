package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an admin.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and admin info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	Admin       AdminInfo `json:"admin"`
	IssuedAt    time.Time `json:"issued_at"`
}

// AdminInfo describes the authenticated admin in responses.
type AdminInfo struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName string  `json:"full_name"`
	SchoolID *string `json:"school_id,omitempty"`
}

// JWTClaims is the access token payload. SchoolID is empty for unaffiliated accounts.
type JWTClaims struct {
	AdminID  string `json:"admin_id"`
	Email    string `json:"email"`
	SchoolID string `json:"school_id,omitempty"`
	jwt.RegisteredClaims
}
