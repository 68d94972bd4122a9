package browser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSelectorMappings(t *testing.T) {
	cases := []struct {
		strategy   string
		expression string
		want       string
	}{
		{"css selector", "div.item > a", "div.item > a"},
		{"id", "login", `[id="login"]`},
		{"name", "q", `[name="q"]`},
		{"xpath", "/html/body/div[2]", "xpath=/html/body/div[2]"},
		{"tag name", "button", "button"},
		{"class name", "cta", ".cta"},
		{"link text", "Sign in", `a:text-is("Sign in")`},
		{"partial link text", "Sign", `a:has-text("Sign")`},
	}
	for _, tc := range cases {
		got, err := ResolveSelector(tc.strategy, tc.expression)
		require.NoError(t, err, tc.strategy)
		assert.Equal(t, tc.want, got, tc.strategy)
	}
}

func TestWindowClampsPagination(t *testing.T) {
	cases := []struct {
		total, max, skip int
		start, end       int
	}{
		{10, 4, 0, 0, 4},
		{10, 4, 8, 8, 10},
		{10, 4, 12, 10, 10},
		{10, 20, 0, 0, 10},
		{10, 4, -3, 0, 4},
		// Non-positive max is an empty window, never the whole set.
		{10, 0, 0, 0, 0},
		{10, -1, 2, 2, 2},
	}
	for _, tc := range cases {
		start, end := window(tc.total, tc.max, tc.skip)
		assert.Equal(t, tc.start, start, "start for total=%d max=%d skip=%d", tc.total, tc.max, tc.skip)
		assert.Equal(t, tc.end, end, "end for total=%d max=%d skip=%d", tc.total, tc.max, tc.skip)
	}
}

func TestResolveSelectorRejectsUnknownStrategy(t *testing.T) {
	_, err := ResolveSelector("telepathy", "x")
	require.ErrorIs(t, err, ErrInvalidStrategy)
	// The message must teach the caller the supported set.
	assert.Contains(t, err.Error(), "css selector")
	assert.Contains(t, err.Error(), "partial link text")
}

func TestValidStrategy(t *testing.T) {
	for _, s := range Strategies {
		assert.True(t, ValidStrategy(s), s)
	}
	assert.False(t, ValidStrategy("id "))
	assert.False(t, ValidStrategy(""))
}

func TestValidKind(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, ValidKind(k), k)
	}
	assert.False(t, ValidKind("safari"))
}

func TestNewSessionDefaults(t *testing.T) {
	s := New(Options{Kind: "edge", Timeout: -1})
	assert.Equal(t, "chromium", s.Kind())
	assert.Equal(t, 10*time.Second, s.Timeout())
	assert.False(t, s.Running())
}

func TestSetTimeoutIgnoresNonPositive(t *testing.T) {
	s := New(Options{Kind: "firefox", Timeout: 3 * time.Second})
	s.SetTimeout(0)
	assert.Equal(t, 3*time.Second, s.Timeout())
	s.SetTimeout(7 * time.Second)
	assert.Equal(t, 7*time.Second, s.Timeout())
}

func TestChangeKindValidatesWithoutStarting(t *testing.T) {
	s := New(Options{Kind: "chromium"})
	require.Error(t, s.ChangeKind("netscape"))
	assert.Equal(t, "chromium", s.Kind())

	require.NoError(t, s.ChangeKind("webkit"))
	assert.Equal(t, "webkit", s.Kind())
}

func TestQuitStoppedSession(t *testing.T) {
	s := New(Options{})
	assert.ErrorIs(t, s.Quit(), ErrNotRunning)
}

func TestPaceIsNoopWhenDetectable(t *testing.T) {
	s := New(Options{PaceOffset: time.Hour, PaceVariance: time.Hour})
	start := time.Now()
	s.Pace()
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPaceSleepsWithinBounds(t *testing.T) {
	s := New(Options{
		Undetected:   true,
		PaceOffset:   10 * time.Millisecond,
		PaceVariance: 20 * time.Millisecond,
	})
	for i := 0; i < 3; i++ {
		start := time.Now()
		s.Pace()
		elapsed := time.Since(start)
		assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
		assert.Less(t, elapsed, 500*time.Millisecond)
	}
}

func TestIsTimeoutMatching(t *testing.T) {
	assert.True(t, isTimeout(errors.New("Timeout 10000ms exceeded")))
	assert.True(t, isTimeout(errors.New("locator.waitFor: timeout")))
	assert.False(t, isTimeout(errors.New("target closed")))
	assert.False(t, isTimeout(nil))
}
