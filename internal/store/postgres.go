package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"referral-api/internal/database"
	"referral-api/internal/user"
)

// PostgresStore persists accounts and activation codes in Postgres via bun.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// FindByEmail retrieves a user by email
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	dbUser := new(database.User)
	err := s.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// FindByReferralCode retrieves the user owning the given referral code
func (s *PostgresStore) FindByReferralCode(ctx context.Context, code string) (*user.User, error) {
	dbUser := new(database.User)
	err := s.db.NewSelect().
		Model(dbUser).
		Where("referral_code = ?", code).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by referral code: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// FindActivationCode retrieves an activation code regardless of its used flag
func (s *PostgresStore) FindActivationCode(ctx context.Context, code string) (*user.ActivationCode, error) {
	dbCode := new(database.ActivationCode)
	err := s.db.NewSelect().
		Model(dbCode).
		Where("code = ?", code).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to get activation code: %w", err)
	}

	return &user.ActivationCode{
		Code:      dbCode.Code,
		Used:      dbCode.Used,
		CreatedAt: dbCode.CreatedAt,
	}, nil
}

// InsertUser inserts a new user row and fills in the generated id
func (s *PostgresStore) InsertUser(ctx context.Context, u *user.User) error {
	dbUser := &database.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		ReferralCode: u.ReferralCode,
		ReferredBy:   u.ReferredBy,
		Wallet:       u.Wallet,
	}

	_, err := s.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		// A raced referral_code collision is not a duplicate email; only
		// the email constraint maps to the sentinel.
		if isUniqueViolation(err, "users_email_key") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	u.ID = dbUser.ID
	u.CreatedAt = dbUser.CreatedAt
	u.UpdatedAt = dbUser.UpdatedAt

	return nil
}

// InsertActivationCode creates a fresh, unused activation code
func (s *PostgresStore) InsertActivationCode(ctx context.Context, code string) error {
	dbCode := &database.ActivationCode{Code: code}

	_, err := s.db.NewInsert().
		Model(dbCode).
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err, "activation_codes_pkey") {
			return ErrDuplicateCode
		}
		return fmt.Errorf("failed to insert activation code: %w", err)
	}

	return nil
}

// MarkCodeUsed consumes an activation code. The used = false guard in the
// WHERE clause makes concurrent consumption lose cleanly instead of
// double-spending the code.
func (s *PostgresStore) MarkCodeUsed(ctx context.Context, code string) error {
	result, err := s.db.NewUpdate().
		Model((*database.ActivationCode)(nil)).
		Set("used = ?", true).
		Where("code = ?", code).
		Where("used = ?", false).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to mark activation code used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Either the code does not exist or it was already consumed.
		if _, err := s.FindActivationCode(ctx, code); err != nil {
			return err
		}
		return ErrCodeAlreadyUsed
	}

	return nil
}

// CreditWallet adds amount to a user's wallet
func (s *PostgresStore) CreditWallet(ctx context.Context, userID uuid.UUID, amount int64) error {
	result, err := s.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("wallet = wallet + ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// CountReferrals counts users who signed up with the given referral code
func (s *PostgresStore) CountReferrals(ctx context.Context, referralCode string) (int, error) {
	count, err := s.db.NewSelect().
		Model((*database.User)(nil)).
		Where("referred_by = ?", referralCode).
		Count(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}

	return count, nil
}

// isUniqueViolation reports whether err is a unique-constraint violation on
// the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") &&
		strings.Contains(msg, constraint)
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *user.User {
	return &user.User{
		ID:           dbu.ID,
		Name:         dbu.Name,
		Email:        dbu.Email,
		PasswordHash: dbu.PasswordHash,
		ReferralCode: dbu.ReferralCode,
		ReferredBy:   dbu.ReferredBy,
		Wallet:       dbu.Wallet,
		CreatedAt:    dbu.CreatedAt,
		UpdatedAt:    dbu.UpdatedAt,
	}
}
