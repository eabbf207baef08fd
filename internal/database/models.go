package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun model for the users table.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	ReferralCode string    `bun:"referral_code,notnull,unique"`
	ReferredBy   string    `bun:"referred_by,notnull,default:''"`
	Wallet       int64     `bun:"wallet,notnull,default:0"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ActivationCode is the bun model for the activation_codes table.
type ActivationCode struct {
	bun.BaseModel `bun:"table:activation_codes,alias:ac"`

	Code      string    `bun:"code,pk"`
	Used      bool      `bun:"used,notnull,default:false"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
