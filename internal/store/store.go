package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"referral-api/internal/user"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrCodeNotFound    = errors.New("activation code not found")
	ErrCodeAlreadyUsed = errors.New("activation code already used")
	ErrDuplicateCode   = errors.New("activation code already exists")
)

// Store is the account-store port. Backends must make each call effectively
// atomic: MarkCodeUsed flips used exactly once, CreditWallet is additive.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByReferralCode(ctx context.Context, code string) (*user.User, error)
	FindActivationCode(ctx context.Context, code string) (*user.ActivationCode, error)
	InsertUser(ctx context.Context, u *user.User) error
	InsertActivationCode(ctx context.Context, code string) error
	MarkCodeUsed(ctx context.Context, code string) error
	CreditWallet(ctx context.Context, userID uuid.UUID, amount int64) error
	CountReferrals(ctx context.Context, referralCode string) (int, error)
}
