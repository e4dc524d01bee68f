package engine

// Reason is the machine-readable cause of a denied like.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonSelfLike           Reason = "self_like"
	ReasonTargetNotFound     Reason = "target_not_found"
	ReasonAlreadyLiked       Reason = "already_liked"
	ReasonCooldown           Reason = "cooldown"
	ReasonDailyLimitExceeded Reason = "daily_limit_exceeded"
	ReasonSpamFlagged        Reason = "spam_flagged"
)

// Kind groups reasons by how a caller should treat them.
type Kind int

const (
	KindNone Kind = iota
	// KindValidation: the request itself is wrong. Never retried.
	KindValidation
	// KindRateLimit: valid but throttled. Carries remaining/wait/score context.
	KindRateLimit
	// KindConflict: the relationship already exists. A normal outcome.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRateLimit:
		return "rate_limit"
	case KindConflict:
		return "conflict"
	default:
		return "none"
	}
}

func (r Reason) Kind() Kind {
	switch r {
	case ReasonSelfLike, ReasonTargetNotFound:
		return KindValidation
	case ReasonCooldown, ReasonDailyLimitExceeded, ReasonSpamFlagged:
		return KindRateLimit
	case ReasonAlreadyLiked:
		return KindConflict
	default:
		return KindNone
	}
}

// Unlimited is reported as Remaining/DailyLimit when no daily quota applies.
const Unlimited = -1

// Decision is the gate's verdict for one like request. It is never persisted.
type Decision struct {
	Allowed         bool
	Reason          Reason
	Remaining       int
	DailyLimit      int
	Used            int
	SpamScore       int
	WaitTimeSeconds int
}

func deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
