package dto

type UserDTO struct {
	Id       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

type GoogleLoginRequest struct {
	Token    string `json:"token" validate:"required"`
	ClientId string `json:"clientId"`
}

// DevLoginRequest is only understood by the development backend.
type DevLoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type ValidateTokenResponse struct {
	Valid   bool     `json:"valid"`
	Message string   `json:"message,omitempty"`
	User    *UserDTO `json:"user,omitempty"`
}

type ProfileResponse struct {
	User UserDTO `json:"user"`
}
