package dto

// RegistrationRequest payload for new accounts.
type RegistrationRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthRequest payload for login.
type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPairResponse standard response for endpoints issuing credentials.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
