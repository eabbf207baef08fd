package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const (
	// Fixed window per IP and purpose: 10 requests / 15 minutes.
	ipLimit  = 10
	ipWindow = 15 * time.Minute

	// Per-email cooldown between mail-sending signups.
	emailCooldown = 2 * time.Minute
)

// Limiter is the request-throttling contract. IP counters are segmented by
// purpose so login attempts don't consume the signup budget; the email
// cooldown throttles repeat signups for the same address, which are the
// requests that trigger outbound mail.
type Limiter interface {
	CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequest(ctx context.Context, ip, purpose string) error
	CheckEmailCooldown(ctx context.Context, email string) (bool, error)
	SetEmailCooldown(ctx context.Context, email string) error
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

func emailKey(email string) string {
	return fmt.Sprintf("ratelimit:email:%s", email)
}
