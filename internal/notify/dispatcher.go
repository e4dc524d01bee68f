// Package notify delivers fire-and-forget events to the notification and
// moderation collaborators over Redis pub/sub.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/oggyb/match-engine/internal/metrics"
)

const (
	ChannelNotifications = "notifications"
	ChannelModeration    = "moderation"

	TypeMatch                = "match"
	ReasonSpamScoreThreshold = "spam_score_threshold"
)

// Publisher is satisfied by cache.RedisCache.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type MatchPayload struct {
	MatchID   uint64    `json:"match_id"`
	UserID    uint64    `json:"user_id"`
	MatchedAt time.Time `json:"matched_at"`
}

// Notification goes to the notification collaborator.
type Notification struct {
	RecipientID uint64       `json:"recipient_id"`
	Type        string       `json:"type"`
	Payload     MatchPayload `json:"payload"`
}

type SpamStats struct {
	TotalLikes  int64   `json:"total_likes"`
	MutualLikes int64   `json:"mutual_likes"`
	RecentLikes int64   `json:"recent_likes"`
	MutualRate  float64 `json:"mutual_rate"`
}

// ModerationAlert goes to the moderation collaborator. Acting on it (ban,
// warn) is theirs.
type ModerationAlert struct {
	UserID uint64    `json:"user_id"`
	Score  int       `json:"score"`
	Reason string    `json:"reason"`
	Stats  SpamStats `json:"stats"`
}

// Dispatcher publishes in the background. Delivery failures are logged and
// counted, never returned: the like that triggered them is already committed.
type Dispatcher struct {
	pub     Publisher
	timeout time.Duration
	log     *slog.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(pub Publisher, timeout time.Duration, log *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Dispatcher{pub: pub, timeout: timeout, log: log}
}

// MatchCreated notifies the user whose earlier like was just reciprocated.
func (d *Dispatcher) MatchCreated(ctx context.Context, n Notification) {
	d.send(ctx, ChannelNotifications, n)
}

// SpamThresholdCrossed alerts moderation about a user above the threshold.
func (d *Dispatcher) SpamThresholdCrossed(ctx context.Context, a ModerationAlert) {
	d.send(ctx, ChannelModeration, a)
}

// Wait blocks until in-flight publishes finish. Used on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, channel string, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		d.log.Error("notification encode failed", "channel", channel, "err", err)
		metrics.RecordNotification(channel, err)
		return
	}

	// detach from the request so a finished RPC does not cancel delivery
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()

		err := d.pub.Publish(ctx, channel, payload)
		metrics.RecordNotification(channel, err)
		if err != nil {
			d.log.Warn("notification publish failed", "channel", channel, "err", err)
			return
		}
		d.log.Debug("notification published", "channel", channel)
	}()
}
