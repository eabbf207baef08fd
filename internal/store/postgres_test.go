package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	emailErr := errors.New(`ERROR: duplicate key value violates unique constraint "users_email_key" (SQLSTATE=23505)`)
	codeErr := errors.New(`ERROR: duplicate key value violates unique constraint "users_referral_code_key" (SQLSTATE=23505)`)
	pkeyErr := errors.New(`ERROR: duplicate key value violates unique constraint "activation_codes_pkey" (SQLSTATE=23505)`)

	assert.True(t, isUniqueViolation(emailErr, "users_email_key"))
	assert.True(t, isUniqueViolation(pkeyErr, "activation_codes_pkey"))

	// A collision on another constraint must not match
	assert.False(t, isUniqueViolation(codeErr, "users_email_key"))
	assert.False(t, isUniqueViolation(emailErr, "activation_codes_pkey"))

	assert.False(t, isUniqueViolation(errors.New("connection refused"), "users_email_key"))
	assert.False(t, isUniqueViolation(nil, "users_email_key"))
}
