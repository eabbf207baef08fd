package account

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"referral-api/internal/logging"
	"referral-api/internal/store"
	"referral-api/internal/user"
)

var (
	ErrNameRequired           = errors.New("name is required")
	ErrEmailRequired          = errors.New("email is required")
	ErrPasswordRequired       = errors.New("password is required")
	ErrActivationCodeRequired = errors.New("activation code is required")
	ErrInvalidEmailFormat     = errors.New("invalid email format")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrInvalidActivationCode  = errors.New("invalid or already used activation code")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrUserNotFound           = errors.New("user not found")
)

const (
	referralCodeLength  = 6
	referralCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Attempts before giving up on a unique referral code. With 36^6
	// codes, one retry is already rare.
	referralCodeRetries = 5
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendWelcomeEmail(ctx context.Context, toEmail, name, referralCode string) error
}

// Config carries the business knobs the service needs.
type Config struct {
	BonusAmount       int64
	MinPasswordLength int
	BcryptCost        int
}

// Service handles signup, login and dashboard business logic
type Service struct {
	store        store.Store
	emailService EmailService
	logger       *logging.Logger
	validate     *validator.Validate
	cfg          Config
}

func NewService(st store.Store, emailService EmailService, logger *logging.Logger, cfg Config) *Service {
	return &Service{
		store:        st,
		emailService: emailService,
		logger:       logger,
		validate:     validator.New(),
		cfg:          cfg,
	}
}

// Register creates a new account from a signup request. The activation code
// is consumed before anything is persisted, so a code can never activate two
// accounts; the referrer, when the supplied code resolves, is credited the
// configured bonus exactly once.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*user.User, error) {
	if err := s.validateRegister(req); err != nil {
		return nil, err
	}

	// Duplicate email check
	if _, err := s.store.FindByEmail(ctx, req.Email); err == nil {
		return nil, store.ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	// Activation code must exist and be unused
	code, err := s.store.FindActivationCode(ctx, req.ActivationCode)
	if err != nil {
		if errors.Is(err, store.ErrCodeNotFound) {
			return nil, ErrInvalidActivationCode
		}
		return nil, fmt.Errorf("failed to look up activation code: %w", err)
	}
	if code.Used {
		return nil, ErrInvalidActivationCode
	}

	// Consume the code. Losing a race here maps to the same error the
	// caller would have seen on the lookup.
	if err := s.store.MarkCodeUsed(ctx, req.ActivationCode); err != nil {
		if errors.Is(err, store.ErrCodeNotFound) || errors.Is(err, store.ErrCodeAlreadyUsed) {
			return nil, ErrInvalidActivationCode
		}
		return nil, fmt.Errorf("failed to consume activation code: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	referralCode, err := s.generateUniqueReferralCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate referral code: %w", err)
	}

	// Credit the referrer when the supplied code resolves; an unknown code
	// credits nobody and is not an error.
	if req.ReferralCode != "" {
		referrer, err := s.store.FindByReferralCode(ctx, req.ReferralCode)
		switch {
		case err == nil:
			if err := s.store.CreditWallet(ctx, referrer.ID, s.cfg.BonusAmount); err != nil {
				return nil, fmt.Errorf("failed to credit referrer: %w", err)
			}
		case errors.Is(err, store.ErrNotFound):
			s.logger.Info("referral code did not resolve", "referral_code", req.ReferralCode)
		default:
			return nil, fmt.Errorf("failed to look up referrer: %w", err)
		}
	}

	newUser := &user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		ReferralCode: referralCode,
		ReferredBy:   req.ReferralCode,
		Wallet:       0,
	}

	if err := s.store.InsertUser(ctx, newUser); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, store.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	// Send welcome email in a goroutine (non-blocking)
	if s.emailService != nil {
		go func() {
			emailCtx := context.Background()
			if err := s.emailService.SendWelcomeEmail(emailCtx, newUser.Email, newUser.Name, newUser.ReferralCode); err != nil {
				s.logger.Warn("failed to send welcome email", "email", newUser.Email, "error", err)
			}
		}()
	}

	return newUser, nil
}

// Login authenticates a user by email and password
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return existing, nil
}

// Dashboard returns the safe profile for email plus the number of users who
// signed up with this user's referral code.
func (s *Service) Dashboard(ctx context.Context, email string) (*DashboardUser, error) {
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	referrals, err := s.store.CountReferrals(ctx, u.ReferralCode)
	if err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}

	return &DashboardUser{
		Name:           u.Name,
		Email:          u.Email,
		Wallet:         u.Wallet,
		MyReferralCode: u.ReferralCode,
		ReferredBy:     u.ReferredBy,
		ReferralsCount: referrals,
	}, nil
}

func (s *Service) validateRegister(req RegisterRequest) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return mapFieldError(verrs[0])
		}
		return fmt.Errorf("failed to validate request: %w", err)
	}

	// Minimum length is configuration, not a struct tag.
	if len(req.Password) < s.cfg.MinPasswordLength {
		return ErrPasswordTooShort
	}

	return nil
}

func mapFieldError(fe validator.FieldError) error {
	switch fe.Field() {
	case "Name":
		return ErrNameRequired
	case "Email":
		if fe.Tag() == "required" {
			return ErrEmailRequired
		}
		return ErrInvalidEmailFormat
	case "Password":
		return ErrPasswordRequired
	case "ActivationCode":
		return ErrActivationCodeRequired
	default:
		return fmt.Errorf("invalid field %s", fe.Field())
	}
}

// generateUniqueReferralCode generates a code and verifies it against the
// store, retrying on the (unlikely) collision.
func (s *Service) generateUniqueReferralCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < referralCodeRetries; attempt++ {
		code, err := randomReferralCode()
		if err != nil {
			return "", err
		}

		_, err = s.store.FindByReferralCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		// Collision; try again.
	}
	return "", fmt.Errorf("no unique referral code after %d attempts", referralCodeRetries)
}

func randomReferralCode() (string, error) {
	b := make([]byte, referralCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = referralCodeCharset[int(b[i])%len(referralCodeCharset)]
	}
	return string(b), nil
}
