package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/oggyb/match-engine/internal/db"
)

// Priority scores for the female-viewer ranking.
const (
	PriorityPremium  = 100
	PriorityVerified = 80
	PriorityNew      = 60
	PriorityDefault  = 40

	priorityNewWindow = 30 * 24 * time.Hour
)

// SuggestFilters narrow the distance-based suggestion list. Zero values
// disable the corresponding bound.
type SuggestFilters struct {
	MaxDistanceKm float64
	MinAge        int
	MaxAge        int
	Gender        string
	Limit         int
	Offset        int
}

type Candidate struct {
	User          db.User
	Age           *int
	DistanceKm    *float64 // nil when either side has no shared coordinates
	PriorityScore int      // set by RankByPriority only
}

// FilterCandidates filters and orders a snapshot of user rows for viewer.
//
// The pool is expected to already exclude users in a like row with the viewer.
// Candidates without coordinates are kept with a nil distance and never
// distance-filtered. Known distances sort ascending ahead of unknown ones;
// unknown distances fall back to recency.
func FilterCandidates(viewer *db.User, pool []db.User, f SuggestFilters, now time.Time) []Candidate {
	vLat, vLon, viewerLocated := viewer.Coordinates()

	out := make([]Candidate, 0, len(pool))
	for _, u := range pool {
		if u.ID == viewer.ID || !u.IsActive || u.BirthDate == nil {
			continue
		}
		if f.Gender != "" && u.Gender != f.Gender {
			continue
		}

		age := AgeAt(*u.BirthDate, now)
		if f.MinAge > 0 && age < f.MinAge {
			continue
		}
		if f.MaxAge > 0 && age > f.MaxAge {
			continue
		}

		c := Candidate{User: u, Age: &age}
		if lat, lon, ok := u.Coordinates(); ok && viewerLocated {
			d := HaversineKm(vLat, vLon, lat, lon)
			if f.MaxDistanceKm > 0 && d > f.MaxDistanceKm {
				continue
			}
			c.DistanceKm = &d
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.DistanceKm != nil && b.DistanceKm != nil:
			if *a.DistanceKm != *b.DistanceKm {
				return *a.DistanceKm < *b.DistanceKm
			}
			return newerFirst(a.User, b.User)
		case a.DistanceKm != nil:
			return true
		case b.DistanceKm != nil:
			return false
		default:
			return newerFirst(a.User, b.User)
		}
	})

	return out
}

// PriorityScore ranks a candidate for the female-viewer list.
func PriorityScore(u *db.User, now time.Time) int {
	switch {
	case u.IsPremium():
		return PriorityPremium
	case u.IsVerified:
		return PriorityVerified
	case now.Sub(u.CreatedAt) <= priorityNewWindow:
		return PriorityNew
	default:
		return PriorityDefault
	}
}

// RankByPriority is the ranking used for female viewers instead of the
// distance-based list: opposite gender only, premium > verified > joined
// within 30 days > everyone else, ties broken by recency. This asymmetry is
// product policy.
func RankByPriority(viewer *db.User, pool []db.User, now time.Time) []Candidate {
	want := OppositeGender(viewer.Gender)
	vLat, vLon, viewerLocated := viewer.Coordinates()

	out := make([]Candidate, 0, len(pool))
	for _, u := range pool {
		if u.ID == viewer.ID || !u.IsActive || u.Gender != want {
			continue
		}
		c := Candidate{User: u, PriorityScore: PriorityScore(&u, now)}
		if u.BirthDate != nil {
			age := AgeAt(*u.BirthDate, now)
			c.Age = &age
		}
		if lat, lon, ok := u.Coordinates(); ok && viewerLocated {
			d := HaversineKm(vLat, vLon, lat, lon)
			c.DistanceKm = &d
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PriorityScore != out[j].PriorityScore {
			return out[i].PriorityScore > out[j].PriorityScore
		}
		return newerFirst(out[i].User, out[j].User)
	})
	return out
}

func OppositeGender(g string) string {
	if g == db.GenderFemale {
		return db.GenderMale
	}
	return db.GenderFemale
}

func newerFirst(a, b db.User) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Paginate returns items[offset:offset+limit], clamped. limit <= 0 means all.
func Paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Suggester loads the snapshot and applies the ranking for the viewer.
type Suggester struct {
	users CandidateSource
	cfg   Config
}

func NewSuggester(users CandidateSource, cfg Config) *Suggester {
	return &Suggester{users: users, cfg: cfg}
}

func (s *Suggester) Suggest(ctx context.Context, viewerID uint64, f SuggestFilters) ([]Candidate, error) {
	viewer, err := s.users.GetUser(ctx, viewerID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, storageErr("load viewer", err)
	}
	now := s.cfg.now()
	limit := s.poolLimit(f)

	if viewer.Gender == db.GenderFemale {
		pool, err := s.users.CandidatePool(ctx, PoolQuery{
			ViewerID: viewerID,
			Gender:   OppositeGender(viewer.Gender),
			Order:    PoolByPriority,
			NewSince: now.Add(-priorityNewWindow).UTC(),
			Limit:    limit,
		})
		if err != nil {
			return nil, storageErr("priority pool", err)
		}
		return Paginate(RankByPriority(viewer, pool, now), f.Limit, f.Offset), nil
	}

	pool, err := s.users.CandidatePool(ctx, distancePoolQuery(viewer, f, now, limit))
	if err != nil {
		return nil, storageErr("candidate pool", err)
	}
	return Paginate(FilterCandidates(viewer, pool, f, now), f.Limit, f.Offset), nil
}

// poolLimit never cuts the pool shorter than the requested page.
func (s *Suggester) poolLimit(f SuggestFilters) int {
	size := s.cfg.CandidatePoolSize
	if size <= 0 || f.Limit <= 0 {
		return size
	}
	if need := f.Offset + f.Limit; need > size {
		return need
	}
	return size
}

// distancePoolQuery mirrors FilterCandidates' bounds in the query so the pool
// cap drops only candidates FilterCandidates would rank last or discard. The
// bounding box is a superset of the radius; FilterCandidates still applies the
// exact haversine bound.
func distancePoolQuery(viewer *db.User, f SuggestFilters, now time.Time, limit int) PoolQuery {
	q := PoolQuery{
		ViewerID:         viewer.ID,
		Gender:           f.Gender,
		RequireBirthDate: true,
		Order:            PoolByRecency,
		Limit:            limit,
	}
	q.BornBefore, q.BornOnOrAfter = BirthBounds(now, f.MinAge, f.MaxAge)

	lat, lon, ok := viewer.Coordinates()
	if !ok {
		return q
	}
	q.Order = PoolByDistance
	q.Origin = &GeoPoint{Lat: lat, Lon: lon}
	if f.MaxDistanceKm > 0 {
		if box, ok := BoundingBoxAround(lat, lon, f.MaxDistanceKm); ok {
			q.Box = &box
		}
	}
	return q
}
