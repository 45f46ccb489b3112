package dto

// ChangePasswordRequest carries the new password.
type ChangePasswordRequest struct {
	Password string `json:"password"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Active   bool   `json:"active"`
}
