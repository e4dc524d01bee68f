package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/match-engine/internal/db"
	"github.com/oggyb/match-engine/internal/engine"
)

func TestCanLike_ValidationOrder(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(
		user(1, db.GenderMale),
		user(2, db.GenderFemale),
		user(4, db.GenderFemale, inactive),
	)
	gate := newEngine(s, testConfig()).Gate()

	cases := []struct {
		name   string
		liker  uint64
		target uint64
		want   engine.Reason
	}{
		{"self like", 1, 1, engine.ReasonSelfLike},
		{"unknown target", 1, 99, engine.ReasonTargetNotFound},
		{"inactive target", 1, 4, engine.ReasonTargetNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := gate.CanLike(ctx, tc.liker, tc.target)
			require.NoError(t, err)
			assert.False(t, d.Allowed)
			assert.Equal(t, tc.want, d.Reason)
			assert.Equal(t, engine.KindValidation, d.Reason.Kind())
		})
	}

	d, err := gate.CanLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 15, d.DailyLimit)
	assert.Equal(t, 15, d.Remaining)
}

func TestCanLike_AlreadyLikedBeforeCooldown(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(user(1, db.GenderMale), user(2, db.GenderFemale))
	e := newEngine(s, testConfig())

	out, err := e.Like(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, out.Decision.Allowed)

	// the cooldown is active too, but dedup wins
	d, err := e.Gate().CanLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonAlreadyLiked, d.Reason)
	assert.Equal(t, engine.KindConflict, d.Reason.Kind())
}

func TestCanLike_Cooldown(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	cfg := testConfig()
	cfg.Now = func() time.Time { return now }

	s := newMemStore(user(1, db.GenderMale), user(2, db.GenderFemale), user(3, db.GenderFemale))
	e := newEngine(s, cfg)

	_, err := e.Like(ctx, 1, 2)
	require.NoError(t, err)

	now = fixedNow.Add(60 * time.Second)
	d, err := e.Gate().CanLike(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonCooldown, d.Reason)
	assert.Equal(t, 3540, d.WaitTimeSeconds)

	now = fixedNow.Add(3601 * time.Second)
	d, err = e.Gate().CanLike(ctx, 1, 3)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestCanLike_CooldownClockSkew(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(user(1, db.GenderMale), user(2, db.GenderFemale))
	// latest like is in the future relative to the gate clock
	s.addLikes(1, 1, fixedNow.Add(10*time.Minute), false)

	d, err := newEngine(s, testConfig()).Gate().CanLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonCooldown, d.Reason)
	assert.Equal(t, 3600, d.WaitTimeSeconds)
}

func TestCanLike_DailyQuotaBoundary(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Cooldown = 0

	s := newMemStore(user(1, db.GenderMale), user(2, db.GenderFemale))
	// 14 mutual likes earlier today keep the spam score at zero
	s.addLikes(1, 14, fixedNow.Add(-5*time.Hour), true)
	// yesterday does not count
	s.addLikes(1, 3, fixedNow.Add(-13*time.Hour), true)

	gate := newEngine(s, cfg).Gate()

	d, err := gate.CanLike(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	assert.Equal(t, 14, d.Used)
	assert.Equal(t, 1, d.Remaining)

	s.addLikes(1, 1, fixedNow.Add(-time.Hour), true)
	d, err = gate.CanLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonDailyLimitExceeded, d.Reason)
	assert.Equal(t, 15, d.DailyLimit)
	assert.Equal(t, 15, d.Used)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, engine.KindRateLimit, d.Reason.Kind())
}

func TestCanLike_FemaleNeverQuotaLimited(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Cooldown = 0

	s := newMemStore(user(1, db.GenderFemale), user(2, db.GenderMale))
	s.addLikes(1, 1000, fixedNow.Add(-time.Hour), false)

	d, err := newEngine(s, cfg).Gate().CanLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.NotEqual(t, engine.ReasonDailyLimitExceeded, d.Reason)
}

func TestCanLike_FemaleAllowedReportsUnlimited(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(user(1, db.GenderFemale), user(2, db.GenderMale))

	d, err := newEngine(s, testConfig()).Gate().CanLike(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	assert.Equal(t, engine.Unlimited, d.DailyLimit)
	assert.Equal(t, engine.Unlimited, d.Remaining)
}

func TestCanLike_SpamFlagged(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Cooldown = 0

	// female so the quota never fires first
	s := newMemStore(user(1, db.GenderFemale), user(2, db.GenderMale))
	// 120 likes, none mutual, 30 of them recent: 30 + 25 + 20 = 75
	s.addLikes(1, 90, fixedNow.Add(-72*time.Hour), false)
	s.addLikes(1, 30, fixedNow.Add(-2*time.Hour), false)

	d, err := newEngine(s, cfg).Gate().CanLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonSpamFlagged, d.Reason)
	assert.Equal(t, 75, d.SpamScore)
}

func TestCanLike_SpamAtThresholdAllowed(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Cooldown = 0
	cfg.SpamDenyThreshold = 75

	s := newMemStore(user(1, db.GenderFemale), user(2, db.GenderMale))
	s.addLikes(1, 90, fixedNow.Add(-72*time.Hour), false)
	s.addLikes(1, 30, fixedNow.Add(-2*time.Hour), false)

	d, err := newEngine(s, cfg).Gate().CanLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 75, d.SpamScore)
}

func TestCanLike_UnknownLiker(t *testing.T) {
	s := newMemStore(user(2, db.GenderFemale))

	_, err := newEngine(s, testConfig()).Gate().CanLike(context.Background(), 1, 2)
	assert.ErrorIs(t, err, engine.ErrUserNotFound)
}

func TestCanLike_StorageErrorPropagates(t *testing.T) {
	s := newMemStore(user(1, db.GenderMale), user(2, db.GenderFemale))
	s.userErr = errDown

	_, err := newEngine(s, testConfig()).Gate().CanLike(context.Background(), 1, 2)
	assert.ErrorIs(t, err, engine.ErrStorage)
	assert.ErrorIs(t, err, errDown)
}

func TestCanLike_SpamFailurePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("open", func(t *testing.T) {
		s := newMemStore(user(1, db.GenderMale), user(2, db.GenderFemale))
		s.statsErr = errDown

		d, err := newEngine(s, testConfig()).Gate().CanLike(ctx, 1, 2)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 0, d.SpamScore)
	})

	t.Run("closed", func(t *testing.T) {
		cfg := testConfig()
		cfg.SpamFailurePolicy = engine.FailClosed
		s := newMemStore(user(1, db.GenderMale), user(2, db.GenderFemale))
		s.statsErr = errDown

		_, err := newEngine(s, cfg).Gate().CanLike(ctx, 1, 2)
		assert.ErrorIs(t, err, engine.ErrStorage)
	})
}

func TestLikeLimit_QuotaSource(t *testing.T) {
	ctx := context.Background()
	// email + phone + old account = 4 points → 25/day tier; legacy free male → 15
	u := user(1, db.GenderMale, func(u *db.User) {
		u.EmailVerified = true
		u.PhoneVerified = true
	})

	cfg := testConfig()
	lim, err := newEngine(newMemStore(u), cfg).Gate().LikeLimit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 15, lim.DailyLimit)
	assert.Equal(t, 25, lim.TierDailyLimit)
	assert.Equal(t, engine.QuotaLegacy, lim.QuotaSource)

	cfg.QuotaSource = engine.QuotaVerification
	lim, err = newEngine(newMemStore(u), cfg).Gate().LikeLimit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 25, lim.DailyLimit)
}

func TestLegacyDailyLimit(t *testing.T) {
	week := 7 * 24 * time.Hour
	cases := []struct {
		name string
		u    db.User
		want int
	}{
		{"female", user(1, db.GenderFemale), engine.Unlimited},
		{"premium", user(1, db.GenderMale, premium), 50},
		{"verified", user(1, db.GenderMale, verified), 25},
		{"new account", user(1, db.GenderMale, joined(24*time.Hour)), 10},
		{"default", user(1, db.GenderMale), 15},
		{"premium beats verified", user(1, db.GenderMale, premium, verified), 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, engine.LegacyDailyLimit(&tc.u, fixedNow, week))
		})
	}
}

func TestReasonKinds(t *testing.T) {
	assert.Equal(t, engine.KindNone, engine.ReasonNone.Kind())
	assert.Equal(t, engine.KindRateLimit, engine.ReasonCooldown.Kind())
	assert.Equal(t, engine.KindRateLimit, engine.ReasonSpamFlagged.Kind())
	assert.Equal(t, "rate_limit", engine.KindRateLimit.String())
}
