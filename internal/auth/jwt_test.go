package auth

import (
	"testing"
	"time"

	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	v := NewVerifier("s3cret", "music-glass")
	token, err := v.Issue("u1", "alice", time.Minute)
	require.NoError(t, err)

	user, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, &domain.User{ID: "u1", Username: "alice", Verified: true}, user)
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("s3cret", "music-glass")

	expired, err := v.Issue("u1", "alice", -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := NewVerifier("other", "music-glass").Issue("u1", "alice", time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewVerifier("s3cret", "someone-else").Issue("u1", "alice", time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject, err := v.Issue("", "alice", time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, domain.ErrUserIDEmpty)

	noName, err := v.Issue("u1", "  ", time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(noName)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDisabledVerifier(t *testing.T) {
	v := NewVerifier("", "music-glass")
	assert.False(t, v.Enabled())
	_, err := v.Verify("x")
	assert.ErrorIs(t, err, ErrNoSecret)
	_, err = v.Issue("u1", "alice", time.Minute)
	assert.ErrorIs(t, err, ErrNoSecret)
}
