package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	likeDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_like_decisions_total",
			Help: "Like requests by outcome (allowed or the denial reason)",
		},
		[]string{"outcome"},
	)

	matchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_matches_total",
			Help: "Mutual matches created",
		},
	)

	unlikesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_unlikes_total",
			Help: "Unlike requests by whether a row was removed",
		},
		[]string{"removed"},
	)

	spamScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_spam_scores",
			Help:    "Distribution of spam scores seen by the gate",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_notifications_total",
			Help: "Collaborator notifications by channel and status",
		},
		[]string{"channel", "status"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_cache_lookups_total",
			Help: "Likes-received count cache lookups",
		},
		[]string{"result"},
	)

	rpcDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matching_rpc_duration_seconds",
			Help:    "gRPC handler latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "code"},
	)
)

// RecordLikeDecision counts a like request; outcome is "allowed" or a denial reason.
func RecordLikeDecision(outcome string) {
	likeDecisionsTotal.WithLabelValues(outcome).Inc()
}

func RecordMatch() {
	matchesTotal.Inc()
}

func RecordUnlike(removed bool) {
	if removed {
		unlikesTotal.WithLabelValues("true").Inc()
		return
	}
	unlikesTotal.WithLabelValues("false").Inc()
}

func RecordSpamScore(score int) {
	spamScores.Observe(float64(score))
}

func RecordNotification(channel string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	notificationsTotal.WithLabelValues(channel, status).Inc()
}

func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	cacheLookupsTotal.WithLabelValues("miss").Inc()
}

func RecordRPC(method, code string, d time.Duration) {
	rpcDuration.WithLabelValues(method, code).Observe(d.Seconds())
}
