package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oggyb/match-engine/internal/db"
)

// Engine pairs the gate with the ledger. It is the only path to
// Ledger.CreateLike, so every recorded like has passed CanLike first.
type Engine struct {
	gate   *Gate
	ledger Ledger
	log    *slog.Logger
}

func New(gate *Gate, ledger Ledger, log *slog.Logger) *Engine {
	return &Engine{gate: gate, ledger: ledger, log: log}
}

// LikeOutcome is what the caller learns about a like request.
type LikeOutcome struct {
	Decision Decision
	Like     *db.Like // nil when denied
	Mutual   bool     // true exactly once per pair, on the like that completed it
}

// Like checks the request and records it. Denials are outcomes, not errors;
// errors wrap ErrStorage, ErrInvariantViolation or ErrUserNotFound.
func (e *Engine) Like(ctx context.Context, likerID, targetID uint64) (LikeOutcome, error) {
	decision, err := e.gate.CanLike(ctx, likerID, targetID)
	if err != nil {
		return LikeOutcome{}, err
	}
	if !decision.Allowed {
		return LikeOutcome{Decision: decision}, nil
	}

	res, err := e.ledger.CreateLike(ctx, likerID, targetID, e.gate.cfg.now())
	switch {
	case errors.Is(err, ErrAlreadyLiked):
		// a concurrent request recorded the same pair after the gate ran
		return LikeOutcome{Decision: deny(ReasonAlreadyLiked)}, nil
	case errors.Is(err, ErrUserNotFound):
		return LikeOutcome{Decision: deny(ReasonTargetNotFound)}, nil
	case errors.Is(err, ErrInvariantViolation):
		e.log.Error("like ledger invariant violated", "liker_id", likerID, "target_id", targetID, "err", err)
		return LikeOutcome{}, err
	case err != nil:
		return LikeOutcome{}, storageErr("create like", err)
	}

	decision.Used++
	if decision.Remaining != Unlimited && decision.Remaining > 0 {
		decision.Remaining--
	}

	like := res.Like
	return LikeOutcome{Decision: decision, Like: &like, Mutual: res.Mutual}, nil
}

// Unlike removes liker → target. A missing row reports Removed=false.
func (e *Engine) Unlike(ctx context.Context, likerID, targetID uint64) (UnlikeResult, error) {
	if likerID == targetID {
		return UnlikeResult{}, nil
	}

	res, err := e.ledger.DeleteLike(ctx, likerID, targetID, e.gate.cfg.now())
	switch {
	case errors.Is(err, ErrInvariantViolation):
		e.log.Error("like ledger invariant violated", "liker_id", likerID, "target_id", targetID, "err", err)
		return UnlikeResult{}, err
	case err != nil:
		return UnlikeResult{}, storageErr("delete like", err)
	}
	return res, nil
}

func (e *Engine) Gate() *Gate {
	return e.gate
}
