package account

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"referral-api/internal/logging"
	"referral-api/internal/store"
)

const testBonus = 1000

func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	svc := NewService(st, nil, logging.NewLogger(true), Config{
		BonusAmount:       testBonus,
		MinPasswordLength: 6,
		BcryptCost:        bcrypt.MinCost, // keep the hashing cheap in tests
	})
	return svc, st
}

func seedCode(t *testing.T, st *store.MemoryStore, code string) {
	t.Helper()
	require.NoError(t, st.InsertActivationCode(context.Background(), code))
}

func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		Name:           "Alice",
		Email:          "alice@example.com",
		Password:       "secret123",
		ActivationCode: "ABC123",
	}
}

func TestRegister(t *testing.T) {
	svc, st := newTestService(t)
	seedCode(t, st, "ABC123")

	u, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, int64(0), u.Wallet)
	assert.Empty(t, u.ReferredBy)
	assert.NotEmpty(t, u.ID)

	// Password is stored hashed, never verbatim
	assert.NotEqual(t, "secret123", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")))

	// Referral code shape: 6 chars from the uppercase charset
	assert.Len(t, u.ReferralCode, 6)
	for _, c := range u.ReferralCode {
		assert.Contains(t, referralCodeCharset, string(c))
	}

	// The activation code is consumed
	code, err := st.FindActivationCode(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.True(t, code.Used)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RegisterRequest)
		wantErr error
	}{
		{"missing name", func(r *RegisterRequest) { r.Name = "" }, ErrNameRequired},
		{"missing email", func(r *RegisterRequest) { r.Email = "" }, ErrEmailRequired},
		{"missing password", func(r *RegisterRequest) { r.Password = "" }, ErrPasswordRequired},
		{"missing activation code", func(r *RegisterRequest) { r.ActivationCode = "" }, ErrActivationCodeRequired},
		{"invalid email format", func(r *RegisterRequest) { r.Email = "not-an-email" }, ErrInvalidEmailFormat},
		{"password too short", func(r *RegisterRequest) { r.Password = "abc" }, ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := newTestService(t)
			seedCode(t, st, "ABC123")

			req := validRegisterRequest()
			tt.mutate(&req)

			_, err := svc.Register(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)

			// A rejected request must not consume the activation code
			code, err := st.FindActivationCode(context.Background(), "ABC123")
			require.NoError(t, err)
			assert.False(t, code.Used)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, st := newTestService(t)
	seedCode(t, st, "ABC123")
	seedCode(t, st, "DEF456")

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	second := validRegisterRequest()
	second.ActivationCode = "DEF456"
	_, err = svc.Register(context.Background(), second)
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	// The second code survives the rejected signup
	code, err := st.FindActivationCode(context.Background(), "DEF456")
	require.NoError(t, err)
	assert.False(t, code.Used)
}

func TestRegisterUnknownActivationCode(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRegisterRequest()
	req.ActivationCode = "NOPE"
	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidActivationCode)
}

func TestRegisterActivationCodeIsSingleUse(t *testing.T) {
	svc, st := newTestService(t)
	seedCode(t, st, "ABC123")

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	second := validRegisterRequest()
	second.Email = "bob@example.com"
	_, err = svc.Register(context.Background(), second)
	assert.ErrorIs(t, err, ErrInvalidActivationCode)

	// Exactly one account exists
	_, err = st.FindByEmail(context.Background(), "alice@example.com")
	assert.NoError(t, err)
	_, err = st.FindByEmail(context.Background(), "bob@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegisterCreditsReferrer(t *testing.T) {
	svc, st := newTestService(t)
	seedCode(t, st, "ABC123")
	seedCode(t, st, "DEF456")

	referrer, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	req := RegisterRequest{
		Name:           "Bob",
		Email:          "bob@example.com",
		Password:       "secret123",
		ActivationCode: "DEF456",
		ReferralCode:   referrer.ReferralCode,
	}
	referred, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, referrer.ReferralCode, referred.ReferredBy)
	assert.Equal(t, int64(0), referred.Wallet)

	// The referrer got exactly one bonus
	updated, err := st.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(testBonus), updated.Wallet)
}

func TestRegisterUnknownReferralCode(t *testing.T) {
	svc, st := newTestService(t)
	seedCode(t, st, "ABC123")
	seedCode(t, st, "DEF456")

	existing, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	// A code nobody owns credits nobody but the signup still succeeds
	req := RegisterRequest{
		Name:           "Bob",
		Email:          "bob@example.com",
		Password:       "secret123",
		ActivationCode: "DEF456",
		ReferralCode:   "ZZZZZZ",
	}
	u, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ZZZZZZ", u.ReferredBy)

	unchanged, err := st.FindByEmail(context.Background(), existing.Email)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unchanged.Wallet)
}

func TestLogin(t *testing.T) {
	svc, st := newTestService(t)
	seedCode(t, st, "ABC123")

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	u, err := svc.Login(context.Background(), "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = svc.Login(context.Background(), "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDashboard(t *testing.T) {
	svc, st := newTestService(t)
	seedCode(t, st, "ABC123")
	seedCode(t, st, "DEF456")
	seedCode(t, st, "GHI789")

	referrer, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	for i, code := range []string{"DEF456", "GHI789"} {
		req := RegisterRequest{
			Name:           "Referred",
			Email:          fmt.Sprintf("user%d@example.com", i),
			Password:       "secret123",
			ActivationCode: code,
			ReferralCode:   referrer.ReferralCode,
		}
		_, err := svc.Register(context.Background(), req)
		require.NoError(t, err)
	}

	dash, err := svc.Dashboard(context.Background(), "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, "Alice", dash.Name)
	assert.Equal(t, "alice@example.com", dash.Email)
	assert.Equal(t, referrer.ReferralCode, dash.MyReferralCode)
	assert.Equal(t, int64(2*testBonus), dash.Wallet)
	assert.Equal(t, 2, dash.ReferralsCount)
}

func TestDashboardUserNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Dashboard(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRandomReferralCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := randomReferralCode()
		require.NoError(t, err)
		assert.Len(t, code, referralCodeLength)
		assert.Equal(t, strings.ToUpper(code), code)
		seen[code] = true
	}
	// 50 draws from a 36^6 space should never collide
	assert.Len(t, seen, 50)
}
