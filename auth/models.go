package auth

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	// Username is the account's email address and login name.
	// Example: "kim@example.com"
	Username string `json:"username"`

	// Name is the display name shown next to posts.
	Name string `json:"name"`

	// Password must satisfy the password policy (see ValidatePassword).
	Password string `json:"password"`

	// ConfirmPassword must equal Password; it is sent so the server can re-check.
	ConfirmPassword string `json:"confirmPassword"`
}

// SigninRequest is the body of POST /auth/signin.
type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is returned by both /auth/signin and /auth/refresh.
type AuthResponse struct {
	// AccessToken is the JWT sent as "Authorization: Bearer <token>".
	// Lifespan: short; expiry is only discovered when a request is rejected.
	AccessToken string `json:"accessToken"`

	// RefreshToken is exchanged for a new pair at /auth/refresh.
	// Security: rotates on each use, the old value stops working.
	RefreshToken string `json:"refreshToken"`
}
