package dto

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateProfileRequest represents the profile update payload
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token string     `json:"token"`
	User  UserOutput `json:"user"`
}

// UserOutput represents user details in API responses
type UserOutput struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}
