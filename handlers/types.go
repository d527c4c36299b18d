// SPDX-License-Identifier: GPL-3.0-only

package handlers

// swagger:model SignupRequest
type SignupRequest struct {
	// User's email address
	// required: true
	Email string `json:"email" example:"user@example.com"`
	// User's password
	// required: true
	Password string `json:"password" example:"MySecretPassword@123"`
	// Optional full name
	FullName *string `json:"full_name" example:"John Doe"`
}

// swagger:model AuthResponse
type AuthResponse struct {
	// Authentication session token
	// Should be used in the Authorization header as a Bearer token.
	SessionToken string `json:"session_token" example:"sample_session_token"`
	// Anti-forgery ticket bound to this session.
	// Must be sent in the X-CSRF-Token header on every mutating request.
	CSRFToken string `json:"csrf_token" example:"sample_csrf_ticket"`
	// Authenticated user details
	User UserDetails `json:"user"`
	// Message indicating successful operation
	Message string `json:"message" example:"Operation successful"`
}

// swagger:model LoginRequest
type LoginRequest struct {
	// User's email address
	Email string `json:"email" example:"user@example.com"`
	// User's password
	Password string `json:"password" example:"MySecretPassword@123"`
}

// swagger:model CSRFTicketResponse
type CSRFTicketResponse struct {
	// Anti-forgery ticket bound to the current session
	CSRFToken string `json:"csrf_token" example:"sample_csrf_ticket"`
	// Message indicating successful retrieval
	Message string `json:"message" example:"Ticket issued successfully"`
}

// swagger:model ForgotPasswordRequest
type ForgotPasswordRequest struct {
	// Email address of the account to reset
	// required: true
	Email string `json:"email" example:"user@example.com"`
}

// swagger:model ResetPasswordRequest
type ResetPasswordRequest struct {
	// Password reset token from the email link
	// required: true
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiJ9..."`
	// New password
	// required: true
	NewPassword string `json:"new_password" example:"MyNewPassword@456"`
}

// swagger:model VerifyEmailRequest
type VerifyEmailRequest struct {
	// Email verification token from the email link
	// required: true
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiJ9..."`
}

// swagger:model ChangePasswordRequest
type ChangePasswordRequest struct {
	// Current password
	// required: true
	CurrentPassword string `json:"current_password" example:"MySecretPassword@123"`
	// New password
	// required: true
	NewPassword string `json:"new_password" example:"MyNewPassword@456"`
}

// swagger:model UpdateProfileRequest
type UpdateProfileRequest struct {
	// New full name
	FullName *string `json:"full_name" example:"John Doe"`
}

// swagger:model CreateUserRequest
type CreateUserRequest struct {
	// Email address for the new account
	// required: true
	Email string `json:"email" example:"user@example.com"`
	// Optional full name
	FullName *string `json:"full_name" example:"John Doe"`
	// Role for the new account (user or admin)
	Role string `json:"role" example:"user"`
}

// swagger:model UpdateUserRequest
type UpdateUserRequest struct {
	// New email address
	Email *string `json:"email" example:"user@example.com"`
	// New full name
	FullName *string `json:"full_name" example:"John Doe"`
	// New role (user or admin)
	Role *string `json:"role" example:"user"`
}

// swagger:model UserDetails
type UserDetails struct {
	// Unique identifier for the user
	ID uint `json:"id" example:"42"`
	// Email address associated with the account
	Email string `json:"email" example:"user@example.com"`
	// Full name of the user
	FullName *string `json:"full_name" example:"John Doe"`
	// Role of the user
	Role string `json:"role" example:"user"`
	// Whether the account is disabled
	Disabled bool `json:"disabled" example:"false"`
	// Whether the user's email is verified
	IsEmailVerified bool `json:"is_email_verified" example:"true"`
	// Presigned URL for the user's avatar, if one is set
	AvatarURL *string `json:"avatar_url,omitempty"`
	// Timestamp of when the account was created
	CreatedAt string `json:"created_at" example:"2023-10-01T12:00:00Z"`
	// Timestamp of when the account was last updated
	UpdatedAt string `json:"updated_at" example:"2023-10-01T12:00:00Z"`
}

// swagger:model UserResponse
type UserResponse struct {
	// User details
	User UserDetails `json:"user"`
	// Message indicating successful operation
	Message string `json:"message"`
}

// swagger:model PaginationDetails
type PaginationDetails struct {
	// Current page number
	Page int `json:"page"`
	// Page size
	PageSize int `json:"page_size"`
	// Total number of items
	Total int64 `json:"total"`
	// Total number of pages
	TotalPages int `json:"total_pages"`
}

// swagger:model UserListResponse
type UserListResponse struct {
	// List of users
	Data []UserDetails `json:"data"`
	// Pagination details
	Pagination PaginationDetails `json:"pagination"`
	// Message indicating successful retrieval
	Message string `json:"message" example:"Users retrieved successfully"`
}

// swagger:model GenericResponse
type GenericResponse struct {
	// Message indicating the result of the operation
	Message string `json:"message"`
}
