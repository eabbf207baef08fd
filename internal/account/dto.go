package account

// RegisterRequest represents the signup request body
type RegisterRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email,max=254"`
	Password       string `json:"password" validate:"required"`
	ActivationCode string `json:"activationCode" validate:"required,max=64"`
	ReferralCode   string `json:"referralCode" validate:"omitempty,max=64"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// DashboardUser is the safe profile returned on the dashboard. Never carries
// the password hash.
type DashboardUser struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Wallet         int64  `json:"wallet"`
	MyReferralCode string `json:"myReferralCode"`
	ReferredBy     string `json:"referredBy"`
	ReferralsCount int    `json:"referralsCount"`
}

// DashboardResponse wraps the dashboard payload
type DashboardResponse struct {
	User DashboardUser `json:"user"`
}

// MessageResponse is a plain confirmation payload
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
