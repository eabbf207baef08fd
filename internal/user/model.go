package user

import (
	"time"

	"github.com/google/uuid"
)

// User is an account in the referral program. Wallet only ever grows, via
// referral credits; ReferredBy is set once at signup and never changes.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose password hash in JSON
	ReferralCode string    `json:"myReferralCode"`
	ReferredBy   string    `json:"referredBy"`
	Wallet       int64     `json:"wallet"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ActivationCode is a single-use token gating signup. Used flips to true
// exactly once and never reverts.
type ActivationCode struct {
	Code      string    `json:"code"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}
