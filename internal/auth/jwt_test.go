package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/match-engine/internal/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := auth.GenerateToken(42, "secret", time.Hour)
	require.NoError(t, err)

	id, err := auth.ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestParseToken_Rejects(t *testing.T) {
	token, err := auth.GenerateToken(42, "secret", time.Hour)
	require.NoError(t, err)

	_, err = auth.ParseToken(token, "other")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	expired, err := auth.GenerateToken(42, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = auth.ParseToken(expired, "secret")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = auth.ParseToken("garbage", "secret")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestContextUserID(t *testing.T) {
	_, ok := auth.UserIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := auth.UserIDFromContext(auth.WithUserID(context.Background(), 7))
	assert.True(t, ok)
	assert.Equal(t, uint64(7), id)
}
