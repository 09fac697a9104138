package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllowUpToMax(t *testing.T) {
	l := New(5, time.Minute)

	for i := 0; i < 5; i++ {
		require.True(t, l.Allow("login", "1.2.3.4"), "request %d", i+1)
	}
	require.False(t, l.Allow("login", "1.2.3.4"))
}

func TestWindowResets(t *testing.T) {
	l := New(2, time.Minute)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	require.True(t, l.Allow("login", "k"))
	require.True(t, l.Allow("login", "k"))
	require.False(t, l.Allow("login", "k"))

	now = now.Add(time.Minute)
	require.True(t, l.Allow("login", "k"))
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	require.True(t, l.Allow("login", "a"))
	require.False(t, l.Allow("login", "a"))
	require.True(t, l.Allow("login", "b"))
}

func TestNamespacesAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	require.True(t, l.Allow("login", "k"))
	require.False(t, l.Allow("login", "k"))
	require.True(t, l.Allow("refresh", "k"))
}

func TestReset(t *testing.T) {
	l := New(1, time.Minute)

	require.True(t, l.Allow("login", "k"))
	require.False(t, l.Allow("login", "k"))
	l.Reset()
	require.True(t, l.Allow("login", "k"))
}

func TestSweepDropsExpiredBuckets(t *testing.T) {
	l := New(1, time.Minute)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	for _, k := range []string{"a", "b", "c"} {
		require.True(t, l.Allow("login", k))
	}
	now = now.Add(2 * time.Minute)
	require.True(t, l.Allow("login", "d"))

	l.mu.Lock()
	defer l.mu.Unlock()
	require.Len(t, l.buckets["login"], 1)
}
