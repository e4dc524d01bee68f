package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/oggyb/match-engine/internal/db"
	"github.com/oggyb/match-engine/internal/engine"
	"github.com/oggyb/match-engine/internal/logger"
)

// memStore is an in-memory UserStore, CandidateSource, LikeStore and Ledger.
type memStore struct {
	mu    sync.Mutex
	users map[uint64]db.User
	likes []db.Like

	userErr  error
	statsErr error
	nextID   uint64
}

func newMemStore(users ...db.User) *memStore {
	s := &memStore{users: map[uint64]db.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) GetUser(_ context.Context, id uint64) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userErr != nil {
		return nil, s.userErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, engine.ErrUserNotFound
	}
	return &u, nil
}

func (s *memStore) CandidatePool(_ context.Context, q engine.PoolQuery) ([]db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.User
	for _, u := range s.users {
		if u.ID == q.ViewerID || !u.IsActive {
			continue
		}
		if q.Gender != "" && u.Gender != q.Gender {
			continue
		}
		if q.RequireBirthDate && u.BirthDate == nil {
			continue
		}
		if u.BirthDate != nil {
			if !q.BornBefore.IsZero() && !u.BirthDate.Before(q.BornBefore) {
				continue
			}
			if !q.BornOnOrAfter.IsZero() && u.BirthDate.Before(q.BornOnOrAfter) {
				continue
			}
		}
		if lat, lon, ok := u.Coordinates(); ok && q.Box != nil && !q.Box.Contains(lat, lon) {
			continue
		}
		if s.pairExists(q.ViewerID, u.ID) {
			continue
		}
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool { return poolLess(q, out[i], out[j]) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func poolLess(q engine.PoolQuery, a, b db.User) bool {
	switch q.Order {
	case engine.PoolByDistance:
		aLat, aLon, aOK := a.Coordinates()
		bLat, bLon, bOK := b.Coordinates()
		if aOK != bOK {
			return aOK
		}
		if aOK && q.Origin != nil {
			dA := engine.HaversineKm(q.Origin.Lat, q.Origin.Lon, aLat, aLon)
			dB := engine.HaversineKm(q.Origin.Lat, q.Origin.Lon, bLat, bLon)
			if dA != dB {
				return dA < dB
			}
		}
	case engine.PoolByPriority:
		// PriorityScore counts created_at >= now-30d as new
		now := q.NewSince.Add(30 * 24 * time.Hour)
		if pa, pb := engine.PriorityScore(&a, now), engine.PriorityScore(&b, now); pa != pb {
			return pa > pb
		}
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (s *memStore) pairExists(a, b uint64) bool {
	for _, l := range s.likes {
		if (l.LikerID == a && l.LikedID == b) || (l.LikerID == b && l.LikedID == a) {
			return true
		}
	}
	return false
}

func (s *memStore) find(liker, liked uint64) int {
	for i, l := range s.likes {
		if l.LikerID == liker && l.LikedID == liked {
			return i
		}
	}
	return -1
}

func (s *memStore) HasLike(_ context.Context, liker, liked uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(liker, liked) >= 0, nil
}

func (s *memStore) LatestLikeAt(_ context.Context, liker uint64) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest time.Time
	ok := false
	for _, l := range s.likes {
		if l.LikerID == liker && (!ok || l.CreatedAt.After(latest)) {
			latest, ok = l.CreatedAt, true
		}
	}
	return latest, ok, nil
}

func (s *memStore) CountLikesSince(_ context.Context, liker uint64, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, l := range s.likes {
		if l.LikerID == liker && !l.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) SpamStats(_ context.Context, liker uint64, recentSince time.Time) (engine.SpamStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statsErr != nil {
		return engine.SpamStats{}, s.statsErr
	}
	var st engine.SpamStats
	for _, l := range s.likes {
		if l.LikerID != liker {
			continue
		}
		st.TotalLikes++
		if l.IsMutual {
			st.MutualLikes++
		}
		if !l.CreatedAt.Before(recentSince) {
			st.RecentLikes++
		}
	}
	return st, nil
}

func (s *memStore) CreateLike(_ context.Context, liker, liked uint64, at time.Time) (engine.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(liker, liked) >= 0 {
		return engine.LikeResult{}, engine.ErrAlreadyLiked
	}
	s.nextID++
	l := db.Like{ID: s.nextID, LikerID: liker, LikedID: liked, CreatedAt: at, UpdatedAt: at}
	mutual := false
	if r := s.find(liked, liker); r >= 0 {
		l.IsMutual = true
		s.likes[r].IsMutual = true
		mutual = true
	}
	s.likes = append(s.likes, l)
	return engine.LikeResult{Like: l, Mutual: mutual}, nil
}

func (s *memStore) DeleteLike(_ context.Context, liker, liked uint64, _ time.Time) (engine.UnlikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(liker, liked)
	if i < 0 {
		return engine.UnlikeResult{}, nil
	}
	was := s.likes[i].IsMutual
	s.likes = append(s.likes[:i], s.likes[i+1:]...)
	if r := s.find(liked, liker); r >= 0 {
		s.likes[r].IsMutual = false
	}
	return engine.UnlikeResult{Removed: true, WasMutual: was}, nil
}

// addLikes appends n outgoing likes from liker to synthetic targets.
func (s *memStore) addLikes(liker uint64, n int, at time.Time, mutual bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.nextID++
		s.likes = append(s.likes, db.Like{
			ID:        s.nextID,
			LikerID:   liker,
			LikedID:   100000 + s.nextID,
			IsMutual:  mutual,
			CreatedAt: at,
		})
	}
}

var errDown = errors.New("connection refused")

// fixedNow is a Monday at noon UTC.
var fixedNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func testConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Location = time.UTC
	cfg.Now = func() time.Time { return fixedNow }
	return cfg
}

func quietLogger() *slog.Logger {
	return logger.Nop()
}

func newEngine(s *memStore, cfg engine.Config) *engine.Engine {
	log := quietLogger()
	gate := engine.NewGate(s, s,
		engine.NewTierCalculator(s, cfg, log),
		engine.NewSpamScorer(s, cfg, log),
		cfg, log)
	return engine.New(gate, s, log)
}

func user(id uint64, gender string, mods ...func(*db.User)) db.User {
	u := db.User{
		ID:               id,
		Username:         "user",
		Email:            "u@test.com",
		Gender:           gender,
		IsActive:         true,
		SubscriptionType: db.SubscriptionFree,
		CreatedAt:        fixedNow.Add(-90 * 24 * time.Hour),
	}
	for _, m := range mods {
		m(&u)
	}
	return u
}

func premium(u *db.User)  { u.SubscriptionType = db.SubscriptionPremium }
func verified(u *db.User) { u.IsVerified = true }
func inactive(u *db.User) { u.IsActive = false }

func joined(ago time.Duration) func(*db.User) {
	return func(u *db.User) { u.CreatedAt = fixedNow.Add(-ago) }
}

func born(y int, m time.Month, d int) func(*db.User) {
	return func(u *db.User) {
		b := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		u.BirthDate = &b
	}
}

func at(lat, lon float64) func(*db.User) {
	return func(u *db.User) {
		u.Latitude, u.Longitude = &lat, &lon
		u.LocationSharing = true
	}
}
