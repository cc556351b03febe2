package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeStoreTakeConsumes(t *testing.T) {
	store := newChallengeStore(time.Minute)
	store.Set("a", challenge{targetAngle: 90, expiresAt: time.Now().Add(time.Minute)})

	c, ok := store.Take("a")
	require.True(t, ok)
	assert.Equal(t, 90, c.targetAngle)

	_, ok = store.Take("a")
	assert.False(t, ok)
}

func TestChallengeStoreExpired(t *testing.T) {
	store := newChallengeStore(time.Minute)
	store.Set("old", challenge{targetAngle: 10, expiresAt: time.Now().Add(-time.Second)})

	_, ok := store.Take("old")
	assert.False(t, ok)

	store.Set("old2", challenge{expiresAt: time.Now().Add(-time.Second)})
	store.Set("fresh", challenge{expiresAt: time.Now().Add(time.Minute)})
	store.mu.Lock()
	_, present := store.m["old2"]
	store.mu.Unlock()
	assert.False(t, present, "expired entries are swept on Set")
}

func TestVerifyRotateUnknownChallenge(t *testing.T) {
	svc, err := NewCaptchaServiceRotate(time.Minute, 5, 120)
	require.NoError(t, err)
	assert.False(t, svc.VerifyRotate(context.Background(), "missing", 0))
}
