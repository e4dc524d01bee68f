package engine

import (
	"context"
	"errors"
	"log/slog"
	"math"
)

// Gate decides whether a like may be recorded.
type Gate struct {
	users UserStore
	likes LikeStore
	tiers *TierCalculator
	spam  *SpamScorer
	cfg   Config
	log   *slog.Logger
}

func NewGate(users UserStore, likes LikeStore, tiers *TierCalculator, spam *SpamScorer, cfg Config, log *slog.Logger) *Gate {
	return &Gate{
		users: users,
		likes: likes,
		tiers: tiers,
		spam:  spam,
		cfg:   cfg,
		log:   log,
	}
}

// CanLike runs the checks in a fixed order and stops at the first denial.
// Cheap checks come first: self-like, target validity and dedup need no
// aggregates; cooldown, quota and spam score do.
//
// Returned errors are ErrUserNotFound for an unknown liker or wrap ErrStorage.
func (g *Gate) CanLike(ctx context.Context, likerID, targetID uint64) (Decision, error) {
	// 1. self-like
	if likerID == targetID {
		return deny(ReasonSelfLike), nil
	}

	// 2. target validity
	target, err := g.users.GetUser(ctx, targetID)
	switch {
	case errors.Is(err, ErrUserNotFound):
		return deny(ReasonTargetNotFound), nil
	case err != nil:
		return Decision{}, storageErr("load target", err)
	case !target.IsActive:
		return deny(ReasonTargetNotFound), nil
	}

	// 3. existing relationship
	exists, err := g.likes.HasLike(ctx, likerID, targetID)
	if err != nil {
		return Decision{}, storageErr("existing like", err)
	}
	if exists {
		return deny(ReasonAlreadyLiked), nil
	}

	now := g.cfg.now()

	// 4. cooldown since the liker's latest like
	if g.cfg.Cooldown > 0 {
		latest, ok, err := g.likes.LatestLikeAt(ctx, likerID)
		if err != nil {
			return Decision{}, storageErr("latest like", err)
		}
		if ok {
			age := now.Sub(latest)
			if age < g.cfg.Cooldown {
				wait := g.cfg.Cooldown - max(age, 0)
				d := deny(ReasonCooldown)
				d.WaitTimeSeconds = int(math.Ceil(wait.Seconds()))
				return d, nil
			}
		}
	}

	// 5. daily quota
	liker, err := g.users.GetUser(ctx, likerID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Decision{}, err
		}
		return Decision{}, storageErr("load liker", err)
	}

	used, err := g.likes.CountLikesSince(ctx, likerID, g.cfg.startOfDay(now))
	if err != nil {
		return Decision{}, storageErr("count likes today", err)
	}

	limit := g.cfg.dailyLimit(liker, now)
	if limit != Unlimited && used >= int64(limit) {
		d := deny(ReasonDailyLimitExceeded)
		d.DailyLimit = limit
		d.Used = int(used)
		d.Remaining = 0
		return d, nil
	}

	// 6. spam score
	score, err := g.spam.Score(ctx, likerID)
	if err != nil {
		return Decision{}, err
	}
	if score.Score > g.cfg.SpamDenyThreshold {
		d := deny(ReasonSpamFlagged)
		d.SpamScore = score.Score
		d.DailyLimit = limit
		d.Used = int(used)
		return d, nil
	}

	// 7. allow
	remaining := Unlimited
	if limit != Unlimited {
		remaining = limit - int(used)
	}
	return Decision{
		Allowed:    true,
		Remaining:  remaining,
		DailyLimit: limit,
		Used:       int(used),
		SpamScore:  score.Score,
	}, nil
}

// LikeLimit returns the enforced daily limit and the verification tier.
func (g *Gate) LikeLimit(ctx context.Context, userID uint64) (LikeLimit, error) {
	u, err := g.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LikeLimit{}, err
		}
		return LikeLimit{}, storageErr("load user", err)
	}

	now := g.cfg.now()
	level := ComputeVerificationLevel(u, now)
	return LikeLimit{
		DailyLimit:     g.cfg.dailyLimit(u, now),
		QuotaSource:    g.cfg.QuotaSource,
		Verification:   level,
		TierDailyLimit: level.DailyLimit,
	}, nil
}

// VerificationLevel delegates to the tier calculator (fails closed).
func (g *Gate) VerificationLevel(ctx context.Context, userID uint64) VerificationLevel {
	return g.tiers.LevelFor(ctx, userID)
}

// SpamScore exposes the scorer for moderation hooks.
func (g *Gate) SpamScore(ctx context.Context, userID uint64) (SpamScore, error) {
	return g.spam.Score(ctx, userID)
}

// Config returns the engine settings the gate runs with.
func (g *Gate) Config() Config {
	return g.cfg
}
