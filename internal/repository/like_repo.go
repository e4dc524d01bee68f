package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/match-engine/internal/db"
	"github.com/oggyb/match-engine/internal/engine"
	"github.com/oggyb/match-engine/internal/utils/pagination"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects a slice of a listing. A non-empty Token takes precedence
// over Offset.
type Page struct {
	Limit  int
	Offset int
	Token  *string
}

func (p Page) limit() int {
	switch {
	case p.Limit <= 0:
		return DefaultPageSize
	case p.Limit > MaxPageSize:
		return MaxPageSize
	}
	return p.Limit
}

// Stats are the like counters of one user.
type Stats struct {
	TotalMatches  int64
	LikesSent     int64
	LikesReceived int64
	PendingLikes  int64
}

// LikeRepository is the match ledger. It is the only writer of the likes table.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// storage marks err as a retryable storage failure.
func storage(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, engine.ErrStorage, err)
}

// utc normalizes timestamps before they are written or compared; sqlite
// compares the stored text representation.
func utc(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// HasLike checks whether liker → liked exists.
func (r *LikeRepository) HasLike(ctx context.Context, likerID, likedID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Count(&count).Error
	if err != nil {
		return false, storage("has like", err)
	}
	return count > 0, nil
}

// LatestLikeAt returns the created_at of the liker's most recent like.
func (r *LikeRepository) LatestLikeAt(ctx context.Context, likerID uint64) (time.Time, bool, error) {
	var likes []db.Like
	err := r.db.WithContext(ctx).
		Where("liker_id = ?", likerID).
		Order("created_at DESC").
		Limit(1).
		Find(&likes).Error
	if err != nil {
		return time.Time{}, false, storage("latest like", err)
	}
	if len(likes) == 0 {
		return time.Time{}, false, nil
	}
	return likes[0].CreatedAt, true, nil
}

// CountLikesSince counts the liker's likes created at or after since.
func (r *LikeRepository) CountLikesSince(ctx context.Context, likerID uint64, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ? AND created_at >= ?", likerID, utc(since)).
		Count(&count).Error
	if err != nil {
		return 0, storage("count likes", err)
	}
	return count, nil
}

// SpamStats aggregates the liker's outgoing likes in a single query.
func (r *LikeRepository) SpamStats(ctx context.Context, likerID uint64, recentSince time.Time) (engine.SpamStats, error) {
	var row struct {
		TotalLikes  int64
		MutualLikes int64
		RecentLikes int64
	}
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Select(`COUNT(*) AS total_likes,
			COALESCE(SUM(CASE WHEN is_mutual THEN 1 ELSE 0 END), 0) AS mutual_likes,
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0) AS recent_likes`, utc(recentSince)).
		Where("liker_id = ?", likerID).
		Scan(&row).Error
	if err != nil {
		return engine.SpamStats{}, storage("spam stats", err)
	}
	return engine.SpamStats{
		TotalLikes:  row.TotalLikes,
		MutualLikes: row.MutualLikes,
		RecentLikes: row.RecentLikes,
	}, nil
}

// lockPair takes row locks on both users in id order so that concurrent
// transactions touching the same pair serialize without deadlocking.
func lockPair(tx *gorm.DB, a, b uint64) error {
	ids := []uint64{min(a, b), max(a, b)}

	var users []db.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id IN ?", ids).
		Order("id").
		Find(&users).Error
	if err != nil {
		return err
	}
	if len(users) != 2 {
		return engine.ErrUserNotFound
	}
	return nil
}

// findLike loads liker → liked inside tx with a row lock.
func findLike(tx *gorm.DB, likerID, likedID uint64) (*db.Like, error) {
	var likes []db.Like
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Limit(1).
		Find(&likes).Error
	if err != nil || len(likes) == 0 {
		return nil, err
	}
	return &likes[0], nil
}

// CreateLike records liker → liked and, if the reverse like exists, flags
// both rows mutual in the same transaction.
//
// Behavior:
//   - Both user rows are locked (id order) before anything is read.
//   - The unique index on (liker_id, liked_id) is the authoritative dedup;
//     a violation returns engine.ErrAlreadyLiked.
//   - Mutual is true only for the like that completed the pair.
func (r *LikeRepository) CreateLike(ctx context.Context, likerID, likedID uint64, at time.Time) (engine.LikeResult, error) {
	at = utc(at)
	var res engine.LikeResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPair(tx, likerID, likedID); err != nil {
			return err
		}

		like := db.Like{
			LikerID:   likerID,
			LikedID:   likedID,
			CreatedAt: at,
			UpdatedAt: at,
		}
		if err := tx.Create(&like).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return engine.ErrAlreadyLiked
			}
			return err
		}

		reverse, err := findLike(tx, likedID, likerID)
		if err != nil {
			return err
		}
		if reverse == nil {
			res.Like = like
			return nil
		}
		if reverse.IsMutual {
			return fmt.Errorf("%w: like %d is mutual without its reverse", engine.ErrInvariantViolation, reverse.ID)
		}

		upd := tx.Model(&db.Like{}).
			Where("id IN ?", []uint64{like.ID, reverse.ID}).
			Updates(map[string]any{"is_mutual": true, "updated_at": at})
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected != 2 {
			return fmt.Errorf("%w: mutual flip touched %d rows", engine.ErrInvariantViolation, upd.RowsAffected)
		}

		like.IsMutual = true
		res.Like = like
		res.Mutual = true
		return nil
	})

	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, engine.ErrAlreadyLiked),
		errors.Is(err, engine.ErrInvariantViolation),
		errors.Is(err, engine.ErrUserNotFound):
		return engine.LikeResult{}, err
	default:
		return engine.LikeResult{}, storage("create like", err)
	}
}

// DeleteLike removes liker → liked and resets the reverse row's mutual flag.
// A missing row reports Removed=false.
func (r *LikeRepository) DeleteLike(ctx context.Context, likerID, likedID uint64, at time.Time) (engine.UnlikeResult, error) {
	at = utc(at)
	var res engine.UnlikeResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPair(tx, likerID, likedID); err != nil {
			if errors.Is(err, engine.ErrUserNotFound) {
				return nil // nothing to remove
			}
			return err
		}

		forward, err := findLike(tx, likerID, likedID)
		if err != nil || forward == nil {
			return err
		}

		if err := tx.Delete(&db.Like{}, forward.ID).Error; err != nil {
			return err
		}

		upd := tx.Model(&db.Like{}).
			Where("liker_id = ? AND liked_id = ? AND is_mutual = ?", likedID, likerID, true).
			Updates(map[string]any{"is_mutual": false, "updated_at": at})
		if upd.Error != nil {
			return upd.Error
		}
		if forward.IsMutual != (upd.RowsAffected == 1) {
			return fmt.Errorf("%w: like %d mutual=%t but reverse reset touched %d rows",
				engine.ErrInvariantViolation, forward.ID, forward.IsMutual, upd.RowsAffected)
		}

		res.Removed = true
		res.WasMutual = forward.IsMutual
		return nil
	})

	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, engine.ErrInvariantViolation):
		return engine.UnlikeResult{}, err
	default:
		return engine.UnlikeResult{}, storage("delete like", err)
	}
}

// ListMatches returns the user's outgoing likes, optionally only mutual ones,
// ordered created_at DESC, id DESC.
//
// Example:
//
//	repo.ListMatches(ctx, 42, true, Page{Limit: 20}) // first 20 mutual matches of user 42
func (r *LikeRepository) ListMatches(ctx context.Context, userID uint64, mutualOnly bool, page Page) ([]db.Like, *string, error) {
	query := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ?", userID)
	if mutualOnly {
		query = query.Where("is_mutual = ?", true)
	}
	return r.list(query, page)
}

// ListLikesReceived returns likes where the user is the target, ordered
// created_at DESC, id DESC.
func (r *LikeRepository) ListLikesReceived(ctx context.Context, userID uint64, page Page) ([]db.Like, *string, error) {
	query := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liked_id = ?", userID)
	return r.list(query, page)
}

// list applies ordering and either keyset or offset pagination.
func (r *LikeRepository) list(query *gorm.DB, page Page) ([]db.Like, *string, error) {
	limit := page.limit()

	cursor, err := pagination.Decode(getString(page.Token))
	if err != nil {
		return nil, nil, err
	}

	query = query.Order("created_at DESC, id DESC").Limit(limit + 1)
	if !cursor.IsZero() {
		ts := cursor.CreatedAt()
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", ts, ts, cursor.ID)
	} else if page.Offset > 0 {
		query = query.Offset(page.Offset)
	}

	var likes []db.Like
	if err := query.Find(&likes).Error; err != nil {
		return nil, nil, storage("list likes", err)
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(likes) > limit {
		last := likes[limit-1]
		token, _ := pagination.Encode(pagination.After(last.ID, last.CreatedAt))
		nextToken = &token
		likes = likes[:limit]
	}

	return likes, nextToken, nil
}

// CountLikesReceived returns how many users liked the given user.
// Used in conjunction with the Redis cache (DB is fallback).
func (r *LikeRepository) CountLikesReceived(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liked_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, storage("count likes received", err)
	}
	return count, nil
}

// Stats returns sent/received/mutual/pending counters for the user.
func (r *LikeRepository) Stats(ctx context.Context, userID uint64) (Stats, error) {
	var sent struct {
		LikesSent    int64
		TotalMatches int64
	}
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Select(`COUNT(*) AS likes_sent,
			COALESCE(SUM(CASE WHEN is_mutual THEN 1 ELSE 0 END), 0) AS total_matches`).
		Where("liker_id = ?", userID).
		Scan(&sent).Error
	if err != nil {
		return Stats{}, storage("stats sent", err)
	}

	var received struct {
		LikesReceived int64
		PendingLikes  int64
	}
	err = r.db.WithContext(ctx).
		Model(&db.Like{}).
		Select(`COUNT(*) AS likes_received,
			COALESCE(SUM(CASE WHEN is_mutual THEN 0 ELSE 1 END), 0) AS pending_likes`).
		Where("liked_id = ?", userID).
		Scan(&received).Error
	if err != nil {
		return Stats{}, storage("stats received", err)
	}

	return Stats{
		TotalMatches:  sent.TotalMatches,
		LikesSent:     sent.LikesSent,
		LikesReceived: received.LikesReceived,
		PendingLikes:  received.PendingLikes,
	}, nil
}

// RecordSecurityEvent appends an abuse history entry.
func (r *LikeRepository) RecordSecurityEvent(ctx context.Context, userID uint64, eventType string, score int, details string) error {
	ev := db.SecurityEvent{
		UserID:    userID,
		EventType: eventType,
		Score:     score,
		Details:   details,
	}
	if err := r.db.WithContext(ctx).Create(&ev).Error; err != nil {
		return storage("record security event", err)
	}
	return nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
