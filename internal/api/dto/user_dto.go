package dto

import "time"

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PrincipalResponse describes the authenticated caller.
type PrincipalResponse struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Role               string   `json:"role"`
	HomeRegion         string   `json:"home_region"`
	ResponsibleRegions []string `json:"responsible_regions"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Password           string   `json:"password"`
	Role               string   `json:"role"`
	HomeRegion         string   `json:"home_region"`
	ResponsibleRegions []string `json:"responsible_regions"`
	ManagerID          *string  `json:"manager_id"`
}

// UpdateUserRequest payload; absent fields are unchanged.
type UpdateUserRequest struct {
	Name               *string   `json:"name"`
	Role               *string   `json:"role"`
	HomeRegion         *string   `json:"home_region"`
	ResponsibleRegions *[]string `json:"responsible_regions"`
	ManagerID          *string   `json:"manager_id"`
	Active             *bool     `json:"active"`
	Password           *string   `json:"password"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	HomeRegion         string    `json:"home_region"`
	ResponsibleRegions []string  `json:"responsible_regions"`
	ManagerID          *string   `json:"manager_id"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
}
