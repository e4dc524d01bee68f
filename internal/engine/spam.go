package engine

import (
	"context"
	"log/slog"
	"time"
)

const (
	MaxSpamScore = 100

	spamRecentWindow = 24 * time.Hour
)

// SpamStats are the aggregates over a user's outgoing likes.
type SpamStats struct {
	TotalLikes  int64
	MutualLikes int64
	RecentLikes int64 // created within the last 24h
}

// MutualRate is MutualLikes/TotalLikes, or 0 without likes.
func (s SpamStats) MutualRate() float64 {
	if s.TotalLikes <= 0 {
		return 0
	}
	return float64(s.MutualLikes) / float64(s.TotalLikes)
}

// SpamScore is a derived abuse metric. Degraded marks a fail-open zero.
type SpamScore struct {
	Score      int
	Stats      SpamStats
	MutualRate float64
	Degraded   bool
}

// ComputeSpamScore accumulates the score from the like statistics, clamped to [0,100].
func ComputeSpamScore(stats SpamStats) int {
	score := 0

	rate := stats.MutualRate()
	switch {
	case rate < 0.10:
		score += 30
	case rate < 0.20:
		score += 15
	}

	switch {
	case stats.RecentLikes > 20:
		score += 25
	case stats.RecentLikes > 10:
		score += 10
	}

	switch {
	case stats.TotalLikes > 100:
		score += 20
	case stats.TotalLikes > 50:
		score += 10
	}

	return max(0, min(score, MaxSpamScore))
}

// SpamScorer computes scores from the ledger. Storage errors follow the
// configured FailurePolicy; the default FailOpen returns a zero score, which
// means a degraded store stops spam denials entirely.
type SpamScorer struct {
	likes LikeStore
	cfg   Config
	log   *slog.Logger
}

func NewSpamScorer(likes LikeStore, cfg Config, log *slog.Logger) *SpamScorer {
	return &SpamScorer{likes: likes, cfg: cfg, log: log}
}

func (s *SpamScorer) Policy() FailurePolicy {
	return s.cfg.SpamFailurePolicy
}

func (s *SpamScorer) Score(ctx context.Context, userID uint64) (SpamScore, error) {
	now := s.cfg.now()

	stats, err := s.likes.SpamStats(ctx, userID, now.Add(-spamRecentWindow))
	if err != nil {
		if s.cfg.SpamFailurePolicy == FailClosed {
			return SpamScore{}, storageErr("spam stats", err)
		}
		s.log.Warn("spam stats unavailable, failing open", "user_id", userID, "err", err)
		return SpamScore{Degraded: true}, nil
	}

	return SpamScore{
		Score:      ComputeSpamScore(stats),
		Stats:      stats,
		MutualRate: stats.MutualRate(),
	}, nil
}
