package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/oggyb/match-engine/internal/db"
)

// Detail is one contributing verification attribute.
type Detail string

const (
	DetailEmail           Detail = "email"
	DetailPhone           Detail = "phone"
	DetailProfileComplete Detail = "profileComplete"
	DetailPremium         Detail = "premium"
	DetailOldAccount      Detail = "oldAccount"
)

const (
	MaxVerificationLevel = 10

	completeProfileThreshold = 80
	oldAccountAge            = 30 * 24 * time.Hour
)

// VerificationLevel is recomputed from the user row each time it is needed.
type VerificationLevel struct {
	Level      int
	Details    []Detail
	Benefits   []string
	DailyLimit int // Unlimited for the top tier
}

type tier struct {
	minPoints  int
	dailyLimit int
	benefits   []string
}

// Highest first. Matched against the uncapped point sum.
var tiers = []tier{
	{minPoints: 8, dailyLimit: Unlimited, benefits: []string{"Unlimited likes", "Priority visibility", "Premium filters"}},
	{minPoints: 5, dailyLimit: 50, benefits: []string{"50 likes per day", "Priority visibility"}},
	{minPoints: 3, dailyLimit: 25, benefits: []string{"25 likes per day", "Standard visibility"}},
	{minPoints: 0, dailyLimit: 10, benefits: []string{"10 likes per day", "Limited visibility"}},
}

func tierFor(points int) tier {
	for _, t := range tiers {
		if points >= t.minPoints {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// LowestVerificationLevel is the most restrictive tier.
func LowestVerificationLevel() VerificationLevel {
	t := tierFor(0)
	return VerificationLevel{
		Level:      0,
		Details:    []Detail{},
		Benefits:   append([]string(nil), t.benefits...),
		DailyLimit: t.dailyLimit,
	}
}

// ComputeVerificationLevel derives the level, details and tier benefits.
func ComputeVerificationLevel(u *db.User, now time.Time) VerificationLevel {
	points := 0
	details := []Detail{}

	if u.EmailVerified {
		points++
		details = append(details, DetailEmail)
	}
	if u.PhoneVerified {
		points += 2
		details = append(details, DetailPhone)
	}
	if u.ProfileCompleteness >= completeProfileThreshold {
		points++
		details = append(details, DetailProfileComplete)
	}
	if u.IsPremium() {
		points += 3
		details = append(details, DetailPremium)
	}
	if !u.CreatedAt.IsZero() && now.Sub(u.CreatedAt) > oldAccountAge {
		points++
		details = append(details, DetailOldAccount)
	}

	t := tierFor(points)
	return VerificationLevel{
		Level:      min(points, MaxVerificationLevel),
		Details:    details,
		Benefits:   append([]string(nil), t.benefits...),
		DailyLimit: t.dailyLimit,
	}
}

// TierCalculator resolves verification levels by user id.
type TierCalculator struct {
	users UserStore
	cfg   Config
	log   *slog.Logger
}

func NewTierCalculator(users UserStore, cfg Config, log *slog.Logger) *TierCalculator {
	return &TierCalculator{users: users, cfg: cfg, log: log}
}

// LevelFor never fails: any lookup error yields the lowest tier.
func (c *TierCalculator) LevelFor(ctx context.Context, userID uint64) VerificationLevel {
	u, err := c.users.GetUser(ctx, userID)
	if err != nil {
		c.log.Warn("verification lookup failed, using lowest tier", "user_id", userID, "err", err)
		return LowestVerificationLevel()
	}
	return ComputeVerificationLevel(u, c.cfg.now())
}
