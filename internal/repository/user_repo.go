package repository

import (
	"context"
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/match-engine/internal/db"
	"github.com/oggyb/match-engine/internal/engine"
)

// UserRepository reads the users table. Profile and account columns are
// owned by other services; nothing here writes them.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetUser returns engine.ErrUserNotFound for unknown ids.
func (r *UserRepository) GetUser(ctx context.Context, id uint64) (*db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&users).Error
	if err != nil {
		return nil, storage("get user", err)
	}
	if len(users) == 0 {
		return nil, engine.ErrUserNotFound
	}
	return &users[0], nil
}

// UsersByIDs loads the given users keyed by id. Missing ids are absent.
func (r *UserRepository) UsersByIDs(ctx context.Context, ids []uint64) (map[uint64]db.User, error) {
	out := make(map[uint64]db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, storage("users by ids", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// located matches users whose coordinates are known and shared, the same
// rule as db.User.Coordinates. Its one var is true.
const located = "users.latitude IS NOT NULL AND users.longitude IS NOT NULL AND users.location_sharing = ?"

// CandidatePool returns active users other than the viewer that share no
// like row with the viewer in either direction.
//
// Behavior:
//   - Gender, birth_date and bounding-box filters run in SQL.
//   - The pool is ordered by q.Order before the LIMIT, so a small cap keeps
//     the best-ranked rows rather than the newest accounts.
//   - Exact distance and priority ranking still happen in the engine.
func (r *UserRepository) CandidatePool(ctx context.Context, q engine.PoolQuery) ([]db.User, error) {
	query := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("users.id <> ? AND users.is_active = ?", q.ViewerID, true).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM likes l
				WHERE (l.liker_id = ? AND l.liked_id = users.id)
				   OR (l.liker_id = users.id AND l.liked_id = ?)
			)`, q.ViewerID, q.ViewerID)

	if q.Gender != "" {
		query = query.Where("users.gender = ?", q.Gender)
	}
	if q.RequireBirthDate {
		query = query.Where("users.birth_date IS NOT NULL")
	}
	if !q.BornBefore.IsZero() {
		query = query.Where("users.birth_date < ?", q.BornBefore.UTC())
	}
	if !q.BornOnOrAfter.IsZero() {
		query = query.Where("users.birth_date >= ?", q.BornOnOrAfter.UTC())
	}
	if b := q.Box; b != nil {
		query = query.Where(
			"(NOT ("+located+") OR (users.latitude BETWEEN ? AND ? AND users.longitude BETWEEN ? AND ?))",
			true, b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
	}

	query = query.Clauses(poolOrder(q))
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var users []db.User
	if err := query.Find(&users).Error; err != nil {
		return nil, storage("candidate pool", err)
	}
	return users, nil
}

// poolOrder renders q.Order as a single ORDER BY expression. Separate
// Order() calls would drop a parameterized expression when merged.
func poolOrder(q engine.PoolQuery) clause.OrderBy {
	const recency = "users.created_at DESC, users.id DESC"

	expr := clause.Expr{SQL: recency, WithoutParentheses: true}
	switch {
	case q.Order == engine.PoolByDistance && q.Origin != nil:
		// Equirectangular squared distance: monotonic enough for a cut,
		// the engine re-sorts by haversine.
		lat, lon := q.Origin.Lat, q.Origin.Lon
		k := math.Cos(lat * math.Pi / 180)
		expr.SQL = "CASE WHEN " + located + " THEN 0 ELSE 1 END, " +
			"CASE WHEN " + located + " THEN " +
			"(users.latitude - ?) * (users.latitude - ?) + " +
			"((users.longitude - ?) * ?) * ((users.longitude - ?) * ?) END ASC, " +
			recency
		expr.Vars = []any{true, true, lat, lat, lon, k, lon, k}
	case q.Order == engine.PoolByPriority:
		expr.SQL = "CASE WHEN users.subscription_type = ? THEN ? " +
			"WHEN users.is_verified = ? THEN ? " +
			"WHEN users.created_at >= ? THEN ? " +
			"ELSE ? END DESC, " + recency
		expr.Vars = []any{
			db.SubscriptionPremium, engine.PriorityPremium,
			true, engine.PriorityVerified,
			q.NewSince.UTC(), engine.PriorityNew,
			engine.PriorityDefault,
		}
	}
	return clause.OrderBy{Expression: expr}
}

// Ping checks the database connection for health probes.
func (r *UserRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
