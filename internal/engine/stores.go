package engine

import (
	"context"
	"time"

	"github.com/oggyb/match-engine/internal/db"
)

// UserStore reads user rows. GetUser returns ErrUserNotFound for unknown ids.
type UserStore interface {
	GetUser(ctx context.Context, id uint64) (*db.User, error)
}

// PoolOrder is the order a candidate pool is cut in.
type PoolOrder int

const (
	// PoolByRecency is created_at desc, id desc.
	PoolByRecency PoolOrder = iota
	// PoolByDistance puts users with shared coordinates first, nearest to
	// Origin first, then the rest by recency.
	PoolByDistance
	// PoolByPriority is the PriorityScore tiers desc, then recency.
	PoolByPriority
)

// PoolQuery selects active users other than ViewerID that share no like row
// with the viewer in either direction. Every bound and the order apply before
// Limit, so the cap only drops candidates ranked below the ones it keeps.
type PoolQuery struct {
	ViewerID         uint64
	Gender           string // empty: any gender
	RequireBirthDate bool

	// birth_date bounds from the age range; zero values disable them
	BornBefore    time.Time // exclusive
	BornOnOrAfter time.Time

	// Box drops located users outside it. Users without shared coordinates
	// always pass.
	Box *BoundingBox

	Order    PoolOrder
	Origin   *GeoPoint // PoolByDistance
	NewSince time.Time // PoolByPriority: joined at or after counts as new

	Limit int // <= 0: no cap
}

// CandidateSource returns candidate snapshots for suggestions.
type CandidateSource interface {
	UserStore
	CandidatePool(ctx context.Context, q PoolQuery) ([]db.User, error)
}

// LikeStore is the read side of the like ledger used by the gate.
type LikeStore interface {
	HasLike(ctx context.Context, likerID, likedID uint64) (bool, error)
	LatestLikeAt(ctx context.Context, likerID uint64) (time.Time, bool, error)
	CountLikesSince(ctx context.Context, likerID uint64, since time.Time) (int64, error)
	SpamStats(ctx context.Context, likerID uint64, recentSince time.Time) (SpamStats, error)
}

// LikeResult is the outcome of a recorded like.
type LikeResult struct {
	Like   db.Like
	Mutual bool
}

// UnlikeResult is the outcome of an unlike.
type UnlikeResult struct {
	Removed   bool
	WasMutual bool
}

// Ledger owns every mutation of the likes table.
//
// CreateLike must insert the row and flip both rows of the pair to mutual in
// one transaction, returning ErrAlreadyLiked when the pair already exists.
// DeleteLike must remove the row and reset the reverse row in one transaction.
type Ledger interface {
	CreateLike(ctx context.Context, likerID, likedID uint64, at time.Time) (LikeResult, error)
	DeleteLike(ctx context.Context, likerID, likedID uint64, at time.Time) (UnlikeResult, error)
}
