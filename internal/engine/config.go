package engine

import (
	"fmt"
	"time"

	"github.com/oggyb/match-engine/internal/config"
)

// FailurePolicy decides what a component does when its storage reads fail.
type FailurePolicy int

const (
	// FailOpen treats the unreadable signal as benign and lets the like through.
	FailOpen FailurePolicy = iota
	// FailClosed propagates the storage error so the request is refused.
	FailClosed
)

func (p FailurePolicy) String() string {
	if p == FailClosed {
		return "closed"
	}
	return "open"
}

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "open":
		return FailOpen, nil
	case "closed":
		return FailClosed, nil
	}
	return FailOpen, fmt.Errorf("unknown failure policy %q", s)
}

// QuotaSource selects which daily-limit table the gate enforces. The other
// one is still reported by LikeLimit for information.
type QuotaSource int

const (
	// QuotaLegacy is the gender/subscription/verified-flag table.
	QuotaLegacy QuotaSource = iota
	// QuotaVerification is the verification-level tier table.
	QuotaVerification
)

func (q QuotaSource) String() string {
	if q == QuotaVerification {
		return "verification"
	}
	return "legacy"
}

func ParseQuotaSource(s string) (QuotaSource, error) {
	switch s {
	case "", "legacy":
		return QuotaLegacy, nil
	case "verification":
		return QuotaVerification, nil
	}
	return QuotaLegacy, fmt.Errorf("unknown quota source %q", s)
}

type Config struct {
	Cooldown            time.Duration
	SpamDenyThreshold   int
	ModerationThreshold int
	SpamFailurePolicy   FailurePolicy
	QuotaSource         QuotaSource
	Location            *time.Location // calendar day for the daily quota
	NewAccountAge       time.Duration
	CandidatePoolSize   int
	Now                 func() time.Time
}

func DefaultConfig() Config {
	return Config{
		Cooldown:            time.Hour,
		SpamDenyThreshold:   70,
		ModerationThreshold: 80,
		SpamFailurePolicy:   FailOpen,
		QuotaSource:         QuotaLegacy,
		Location:            time.Local,
		NewAccountAge:       7 * 24 * time.Hour,
		CandidatePoolSize:   500,
		Now:                 time.Now,
	}
}

// ConfigFrom maps the application config onto engine settings.
func ConfigFrom(c *config.Config) (Config, error) {
	out := DefaultConfig()

	policy, err := ParseFailurePolicy(c.Engine.SpamFailurePolicy)
	if err != nil {
		return out, err
	}
	source, err := ParseQuotaSource(c.Engine.QuotaSource)
	if err != nil {
		return out, err
	}
	loc, err := c.Location()
	if err != nil {
		return out, err
	}

	out.Cooldown = c.Engine.Cooldown
	out.SpamDenyThreshold = c.Engine.SpamDenyThreshold
	out.ModerationThreshold = c.Engine.ModerationThreshold
	out.SpamFailurePolicy = policy
	out.QuotaSource = source
	out.Location = loc
	out.NewAccountAge = c.Engine.NewAccountAge
	out.CandidatePoolSize = c.Engine.CandidatePoolSize
	return out, nil
}

// CurrentTime is the engine clock.
func (c Config) CurrentTime() time.Time {
	return c.now()
}

func (c Config) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// startOfDay is local midnight of now's calendar day.
func (c Config) startOfDay(now time.Time) time.Time {
	loc := c.location()
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
