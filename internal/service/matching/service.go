package matching

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oggyb/match-engine/internal/app"
	"github.com/oggyb/match-engine/internal/auth"
	"github.com/oggyb/match-engine/internal/db"
	"github.com/oggyb/match-engine/internal/engine"
	svcErr "github.com/oggyb/match-engine/internal/errors"
	"github.com/oggyb/match-engine/internal/logger"
	"github.com/oggyb/match-engine/internal/metrics"
	"github.com/oggyb/match-engine/internal/notify"
	"github.com/oggyb/match-engine/internal/repository"
	"github.com/oggyb/match-engine/internal/validation"
)

// Service implements the Matching gRPC API.
// It wires the engine to the repositories, the count cache and the
// collaborator notifications.
type Service struct {
	appCtx    *app.AppContext
	cfg       engine.Config
	engine    *engine.Engine
	suggester *engine.Suggester
	likeRepo  *repository.LikeRepository
	userRepo  *repository.UserRepository
}

// NewMatchingService creates a new Matching service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via LikeRepository and UserRepository)
//   - RedisCache for the likes-received counters
//   - Notifier for match and moderation events
func NewMatchingService(appCtx *app.AppContext) *Service {
	cfg := appCtx.Engine
	log := appCtx.Logger.With("component", "engine")

	likeRepo := repository.NewLikeRepository(appCtx.DB)
	userRepo := repository.NewUserRepository(appCtx.DB)

	gate := engine.NewGate(
		userRepo,
		likeRepo,
		engine.NewTierCalculator(userRepo, cfg, log),
		engine.NewSpamScorer(likeRepo, cfg, log),
		cfg,
		log,
	)

	return &Service{
		appCtx:    appCtx,
		cfg:       cfg,
		engine:    engine.New(gate, likeRepo, log),
		suggester: engine.NewSuggester(userRepo, cfg),
		likeRepo:  likeRepo,
		userRepo:  userRepo,
	}
}

// authorize rejects calls where an authenticated caller acts for someone else.
// Without an identity in ctx (auth disabled) every call is allowed.
func authorize(ctx context.Context, actingUserID uint64) error {
	callerID, ok := auth.UserIDFromContext(ctx)
	if !ok || callerID == actingUserID {
		return nil
	}
	return svcErr.PermissionDenied("cannot act on behalf of another user")
}

// check validates the request and the caller's identity.
func check(ctx context.Context, req any, actingUserID uint64) error {
	if err := validation.Struct(req); err != nil {
		return svcErr.InvalidArgument(err.Error())
	}
	return authorize(ctx, actingUserID)
}

func intPtr(v int) *int { return &v }

// log returns the request-scoped logger so lines carry the request id.
func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.appCtx.Logger)
}

// Like runs the abuse gate and records the like.
//
// Behavior:
//   - Denials come back as allowed=false with a reason, never as RPC errors.
//   - A spam denial is persisted as a security event.
//   - A score above the moderation threshold alerts moderation.
//   - A like that completes a pair notifies the other user.
//   - The target's likes-received count cache is invalidated.
//
// Example:
//
//	svc.Like(ctx, &LikeRequest{LikerID: 1, TargetID: 2})
func (s *Service) Like(ctx context.Context, req *LikeRequest) (*LikeResponse, error) {
	s.log(ctx).Debug("Like called", "liker", req.LikerID, "target", req.TargetID)

	if err := check(ctx, req, req.LikerID); err != nil {
		return nil, err
	}

	out, err := s.engine.Like(ctx, req.LikerID, req.TargetID)
	if err != nil {
		s.log(ctx).Error("Like failed", "liker", req.LikerID, "target", req.TargetID, "err", err)
		return nil, svcErr.Map(err)
	}

	d := out.Decision
	resp := &LikeResponse{
		Allowed: d.Allowed,
		Reason:  string(d.Reason),
	}
	if !d.Allowed {
		resp.Kind = d.Reason.Kind().String()
	}

	switch d.Reason {
	case engine.ReasonNone:
		metrics.RecordLikeDecision("allowed")
		metrics.RecordSpamScore(d.SpamScore)
		resp.Remaining = intPtr(d.Remaining)
		resp.DailyLimit = intPtr(d.DailyLimit)
		resp.Used = intPtr(d.Used)
		resp.SpamScore = intPtr(d.SpamScore)
	case engine.ReasonCooldown:
		metrics.RecordLikeDecision(string(d.Reason))
		resp.WaitTimeSeconds = intPtr(d.WaitTimeSeconds)
	case engine.ReasonDailyLimitExceeded:
		metrics.RecordLikeDecision(string(d.Reason))
		resp.Remaining = intPtr(0)
		resp.DailyLimit = intPtr(d.DailyLimit)
		resp.Used = intPtr(d.Used)
	case engine.ReasonSpamFlagged:
		metrics.RecordLikeDecision(string(d.Reason))
		metrics.RecordSpamScore(d.SpamScore)
		resp.SpamScore = intPtr(d.SpamScore)
		resp.DailyLimit = intPtr(d.DailyLimit)
		resp.Used = intPtr(d.Used)
		s.recordSpamEvent(ctx, req.LikerID, d.SpamScore)
	default:
		metrics.RecordLikeDecision(string(d.Reason))
	}

	if d.SpamScore > s.cfg.ModerationThreshold {
		s.alertModeration(ctx, req.LikerID)
	}

	if out.Like == nil {
		return resp, nil
	}

	resp.Match = &MatchRef{ID: out.Like.ID, IsMutual: out.Mutual}
	s.invalidateLikesReceived(ctx, req.TargetID)

	if out.Mutual {
		metrics.RecordMatch()
		s.appCtx.Notifier.MatchCreated(ctx, notify.Notification{
			RecipientID: req.TargetID,
			Type:        notify.TypeMatch,
			Payload: notify.MatchPayload{
				MatchID:   out.Like.ID,
				UserID:    req.LikerID,
				MatchedAt: out.Like.CreatedAt,
			},
		})
	}

	return resp, nil
}

func (s *Service) recordSpamEvent(ctx context.Context, userID uint64, score int) {
	details := fmt.Sprintf("like denied: %s (threshold %d)", engine.ReasonSpamFlagged, s.cfg.SpamDenyThreshold)
	if err := s.likeRepo.RecordSecurityEvent(ctx, userID, db.EventSpamDetected, score, details); err != nil {
		s.log(ctx).Warn("security event not recorded", "user", userID, "err", err)
	}
}

func (s *Service) alertModeration(ctx context.Context, userID uint64) {
	score, err := s.engine.Gate().SpamScore(ctx, userID)
	if err != nil {
		s.log(ctx).Warn("moderation alert skipped", "user", userID, "err", err)
		return
	}
	if score.Score <= s.cfg.ModerationThreshold {
		return
	}

	s.appCtx.Notifier.SpamThresholdCrossed(ctx, notify.ModerationAlert{
		UserID: userID,
		Score:  score.Score,
		Reason: notify.ReasonSpamScoreThreshold,
		Stats: notify.SpamStats{
			TotalLikes:  score.Stats.TotalLikes,
			MutualLikes: score.Stats.MutualLikes,
			RecentLikes: score.Stats.RecentLikes,
			MutualRate:  score.MutualRate,
		},
	})
}

func (s *Service) invalidateLikesReceived(ctx context.Context, userID uint64) {
	if err := s.appCtx.RedisCache.InvalidateLikesReceived(ctx, userID); err != nil {
		s.log(ctx).Warn("count cache invalidation failed", "user", userID, "err", err)
	}
}

// Unlike removes the caller's like. A mutual match is dissolved on both rows.
func (s *Service) Unlike(ctx context.Context, req *UnlikeRequest) (*UnlikeResponse, error) {
	s.log(ctx).Debug("Unlike called", "liker", req.LikerID, "target", req.TargetID)

	if err := check(ctx, req, req.LikerID); err != nil {
		return nil, err
	}

	res, err := s.engine.Unlike(ctx, req.LikerID, req.TargetID)
	if err != nil {
		s.log(ctx).Error("Unlike failed", "liker", req.LikerID, "target", req.TargetID, "err", err)
		return nil, svcErr.Map(err)
	}

	metrics.RecordUnlike(res.Removed)
	if res.Removed {
		s.invalidateLikesReceived(ctx, req.TargetID)
	}
	return &UnlikeResponse{Removed: res.Removed}, nil
}

// ListMatches returns the users the caller liked, newest first, with age and
// distance from the caller.
func (s *Service) ListMatches(ctx context.Context, req *ListMatchesRequest) (*ListMatchesResponse, error) {
	s.log(ctx).Debug("ListMatches called", "user", req.UserID, "mutual_only", req.MutualOnly, "token", req.PageToken)

	if err := check(ctx, req, req.UserID); err != nil {
		return nil, err
	}

	viewer, err := s.userRepo.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	likes, next, err := s.likeRepo.ListMatches(ctx, req.UserID, req.MutualOnly, repository.Page{
		Limit:  req.Limit,
		Offset: req.Offset,
		Token:  req.PageToken,
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	ids := make([]uint64, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.LikedID)
	}
	users, err := s.userRepo.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	now := s.cfg.CurrentTime()
	resp := &ListMatchesResponse{Matches: make([]MatchItem, 0, len(likes)), NextPageToken: next}
	for _, l := range likes {
		item := MatchItem{ID: l.LikedID, MatchedAt: l.CreatedAt, IsMutual: l.IsMutual}
		if u, ok := users[l.LikedID]; ok {
			item.Age = ageOf(&u, now)
			item.DistanceKm = distance(viewer, &u)
		}
		resp.Matches = append(resp.Matches, item)
	}

	s.log(ctx).Debug("ListMatches result", "count", len(resp.Matches), "next_token", next)
	return resp, nil
}

// ListLikesReceived returns who liked the caller, newest first.
func (s *Service) ListLikesReceived(ctx context.Context, req *ListLikesReceivedRequest) (*ListLikesReceivedResponse, error) {
	s.log(ctx).Debug("ListLikesReceived called", "user", req.UserID, "token", req.PageToken)

	if err := check(ctx, req, req.UserID); err != nil {
		return nil, err
	}

	likes, next, err := s.likeRepo.ListLikesReceived(ctx, req.UserID, repository.Page{
		Limit:  req.Limit,
		Offset: req.Offset,
		Token:  req.PageToken,
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	ids := make([]uint64, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.LikerID)
	}
	users, err := s.userRepo.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	now := s.cfg.CurrentTime()
	resp := &ListLikesReceivedResponse{Likes: make([]LikeReceivedItem, 0, len(likes)), NextPageToken: next}
	for _, l := range likes {
		item := LikeReceivedItem{ID: l.LikerID, LikedAt: l.CreatedAt, IsMutual: l.IsMutual}
		if u, ok := users[l.LikerID]; ok {
			item.Age = ageOf(&u, now)
		}
		resp.Likes = append(resp.Likes, item)
	}
	return resp, nil
}

// Suggestions returns candidates the caller has no like row with. Female
// callers get the priority ranking, everyone else the distance ranking.
func (s *Service) Suggestions(ctx context.Context, req *SuggestionsRequest) (*SuggestionsResponse, error) {
	s.log(ctx).Debug("Suggestions called", "user", req.UserID, "max_distance_km", req.MaxDistanceKm)

	if err := check(ctx, req, req.UserID); err != nil {
		return nil, err
	}
	if req.MaxAge > 0 && req.MinAge > req.MaxAge {
		return nil, svcErr.InvalidArgument("min_age must not exceed max_age")
	}

	limit := req.Limit
	if limit == 0 {
		limit = repository.DefaultPageSize
	}

	candidates, err := s.suggester.Suggest(ctx, req.UserID, engine.SuggestFilters{
		MaxDistanceKm: req.MaxDistanceKm,
		MinAge:        req.MinAge,
		MaxAge:        req.MaxAge,
		Gender:        req.Gender,
		Limit:         limit,
		Offset:        req.Offset,
	})
	if err != nil {
		s.log(ctx).Error("Suggestions failed", "user", req.UserID, "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &SuggestionsResponse{Candidates: make([]CandidateItem, 0, len(candidates))}
	for _, c := range candidates {
		item := CandidateItem{
			ID:         c.User.ID,
			Age:        c.Age,
			Gender:     c.User.Gender,
			DistanceKm: c.DistanceKm,
		}
		if c.PriorityScore > 0 {
			item.PriorityScore = intPtr(c.PriorityScore)
		}
		resp.Candidates = append(resp.Candidates, item)
	}
	return resp, nil
}

// Stats returns like counters for the user.
func (s *Service) Stats(ctx context.Context, req *UserRequest) (*StatsResponse, error) {
	if err := check(ctx, req, req.UserID); err != nil {
		return nil, err
	}

	st, err := s.likeRepo.Stats(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &StatsResponse{
		TotalMatches:  st.TotalMatches,
		LikesSent:     st.LikesSent,
		LikesReceived: st.LikesReceived,
		PendingLikes:  st.PendingLikes,
	}, nil
}

// VerificationLevel never fails on lookup errors: it reports the lowest tier.
func (s *Service) VerificationLevel(ctx context.Context, req *UserRequest) (*VerificationLevelResponse, error) {
	if err := check(ctx, req, req.UserID); err != nil {
		return nil, err
	}

	v := s.engine.Gate().VerificationLevel(ctx, req.UserID)
	details := make([]string, 0, len(v.Details))
	for _, d := range v.Details {
		details = append(details, string(d))
	}
	return &VerificationLevelResponse{Level: v.Level, Details: details, Benefits: v.Benefits}, nil
}

// LikeLimit reports the enforced daily limit next to the verification tier.
func (s *Service) LikeLimit(ctx context.Context, req *UserRequest) (*LikeLimitResponse, error) {
	if err := check(ctx, req, req.UserID); err != nil {
		return nil, err
	}

	lim, err := s.engine.Gate().LikeLimit(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &LikeLimitResponse{
		DailyLimit:        lim.DailyLimit,
		QuotaSource:       lim.QuotaSource.String(),
		VerificationLevel: lim.Verification.Level,
		TierDailyLimit:    lim.TierDailyLimit,
		Benefits:          lim.Verification.Benefits,
	}, nil
}

// CountLikesReceived returns how many users liked the caller.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:received:userID).
//  2. On a miss or a Redis error, falls back to DB via LikeRepository.CountLikesReceived.
//  3. On DB fetch, updates Redis with a 1h TTL.
//
// Like and Unlike invalidate the key.
func (s *Service) CountLikesReceived(ctx context.Context, req *UserRequest) (*CountLikesReceivedResponse, error) {
	s.log(ctx).Debug("CountLikesReceived called", "user", req.UserID)

	if err := check(ctx, req, req.UserID); err != nil {
		return nil, err
	}

	// try cache first
	n, ok, err := s.appCtx.RedisCache.GetLikesReceived(ctx, req.UserID)
	if err != nil {
		s.log(ctx).Warn("count cache read failed", "user", req.UserID, "err", err)
	}
	metrics.RecordCacheLookup(ok)
	if ok {
		return &CountLikesReceivedResponse{Count: uint64(n)}, nil
	}

	// fallback: DB
	count, err := s.likeRepo.CountLikesReceived(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if err := s.appCtx.RedisCache.SetLikesReceived(ctx, req.UserID, count); err != nil {
		s.log(ctx).Warn("count cache write failed", "user", req.UserID, "err", err)
	}

	return &CountLikesReceivedResponse{Count: uint64(count)}, nil
}

func ageOf(u *db.User, now time.Time) *int {
	if u.BirthDate == nil {
		return nil
	}
	age := engine.AgeAt(*u.BirthDate, now)
	return &age
}

func distance(a, b *db.User) *float64 {
	lat1, lon1, ok1 := a.Coordinates()
	lat2, lon2, ok2 := b.Coordinates()
	if !ok1 || !ok2 {
		return nil
	}
	d := engine.HaversineKm(lat1, lon1, lat2, lon2)
	return &d
}
