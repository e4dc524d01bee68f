package engine

import (
	"time"

	"github.com/oggyb/match-engine/internal/db"
)

const (
	legacyPremiumLimit    = 50
	legacyVerifiedLimit   = 25
	legacyNewAccountLimit = 10
	legacyDefaultLimit    = 15
)

// LegacyDailyLimit is the flat gender/subscription/verified table.
// Women are never quota-limited.
func LegacyDailyLimit(u *db.User, now time.Time, newAccountAge time.Duration) int {
	switch {
	case u.Gender == db.GenderFemale:
		return Unlimited
	case u.IsPremium():
		return legacyPremiumLimit
	case u.IsVerified:
		return legacyVerifiedLimit
	case now.Sub(u.CreatedAt) < newAccountAge:
		return legacyNewAccountLimit
	default:
		return legacyDefaultLimit
	}
}

// LikeLimit reports the enforced quota next to the verification tier.
type LikeLimit struct {
	DailyLimit     int
	QuotaSource    QuotaSource
	Verification   VerificationLevel
	TierDailyLimit int
}

// dailyLimit picks the enforced limit from the configured source.
func (c Config) dailyLimit(u *db.User, now time.Time) int {
	if c.QuotaSource == QuotaVerification {
		return ComputeVerificationLevel(u, now).DailyLimit
	}
	return LegacyDailyLimit(u, now, c.NewAccountAge)
}
