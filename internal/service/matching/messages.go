package matching

import "time"

type LikeRequest struct {
	LikerID  uint64 `json:"liker_id" validate:"required"`
	TargetID uint64 `json:"target_id" validate:"required"`
}

type MatchRef struct {
	ID       uint64 `json:"id"`
	IsMutual bool   `json:"is_mutual"`
}

// LikeResponse carries the decision. Denials are not RPC errors: Reason and
// Kind say why, the optional counters give rate-limit context.
type LikeResponse struct {
	Allowed         bool      `json:"allowed"`
	Reason          string    `json:"reason,omitempty"`
	Kind            string    `json:"kind,omitempty"`
	Match           *MatchRef `json:"match,omitempty"`
	Remaining       *int      `json:"remaining,omitempty"`
	DailyLimit      *int      `json:"daily_limit,omitempty"`
	Used            *int      `json:"used,omitempty"`
	WaitTimeSeconds *int      `json:"wait_time_seconds,omitempty"`
	SpamScore       *int      `json:"spam_score,omitempty"`
}

type UnlikeRequest struct {
	LikerID  uint64 `json:"liker_id" validate:"required"`
	TargetID uint64 `json:"target_id" validate:"required"`
}

type UnlikeResponse struct {
	Removed bool `json:"removed"`
}

type ListMatchesRequest struct {
	UserID     uint64  `json:"user_id" validate:"required"`
	MutualOnly bool    `json:"mutual_only"`
	Limit      int     `json:"limit" validate:"min=0,max=100"`
	Offset     int     `json:"offset" validate:"min=0"`
	PageToken  *string `json:"page_token,omitempty"`
}

type MatchItem struct {
	ID         uint64    `json:"id"`
	Age        *int      `json:"age,omitempty"`
	DistanceKm *float64  `json:"distance_km,omitempty"`
	MatchedAt  time.Time `json:"matched_at"`
	IsMutual   bool      `json:"is_mutual"`
}

type ListMatchesResponse struct {
	Matches       []MatchItem `json:"matches"`
	NextPageToken *string     `json:"next_page_token,omitempty"`
}

type ListLikesReceivedRequest struct {
	UserID    uint64  `json:"user_id" validate:"required"`
	Limit     int     `json:"limit" validate:"min=0,max=100"`
	Offset    int     `json:"offset" validate:"min=0"`
	PageToken *string `json:"page_token,omitempty"`
}

type LikeReceivedItem struct {
	ID       uint64    `json:"id"`
	Age      *int      `json:"age,omitempty"`
	LikedAt  time.Time `json:"liked_at"`
	IsMutual bool      `json:"is_mutual"`
}

type ListLikesReceivedResponse struct {
	Likes         []LikeReceivedItem `json:"likes"`
	NextPageToken *string            `json:"next_page_token,omitempty"`
}

type SuggestionsRequest struct {
	UserID        uint64  `json:"user_id" validate:"required"`
	MaxDistanceKm float64 `json:"max_distance_km" validate:"min=0"`
	MinAge        int     `json:"min_age" validate:"min=0,max=150"`
	MaxAge        int     `json:"max_age" validate:"min=0,max=150"`
	Gender        string  `json:"gender" validate:"omitempty,oneof=male female"`
	Limit         int     `json:"limit" validate:"min=0,max=100"`
	Offset        int     `json:"offset" validate:"min=0"`
}

type CandidateItem struct {
	ID            uint64   `json:"id"`
	Age           *int     `json:"age,omitempty"`
	Gender        string   `json:"gender"`
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	PriorityScore *int     `json:"priority_score,omitempty"`
}

type SuggestionsResponse struct {
	Candidates []CandidateItem `json:"candidates"`
}

type UserRequest struct {
	UserID uint64 `json:"user_id" validate:"required"`
}

type StatsResponse struct {
	TotalMatches  int64 `json:"total_matches"`
	LikesSent     int64 `json:"likes_sent"`
	LikesReceived int64 `json:"likes_received"`
	PendingLikes  int64 `json:"pending_likes"`
}

type VerificationLevelResponse struct {
	Level    int      `json:"level"`
	Details  []string `json:"details"`
	Benefits []string `json:"benefits"`
}

type LikeLimitResponse struct {
	DailyLimit        int      `json:"daily_limit"`
	QuotaSource       string   `json:"quota_source"`
	VerificationLevel int      `json:"verification_level"`
	TierDailyLimit    int      `json:"tier_daily_limit"`
	Benefits          []string `json:"benefits"`
}

type CountLikesReceivedResponse struct {
	Count uint64 `json:"count"`
}
