package tests

import (
	"errors"
	"testing"
	"time"

	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock hands out strictly increasing timestamps
type tickingClock struct {
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newPendingSet() (*businessflow.PendingSet[string], *tickingClock) {
	clock := &tickingClock{now: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
	return businessflow.NewPendingSetWithClock[string](clock.Now), clock
}

func TestPendingSetLifecycle(t *testing.T) {
	t.Run("BeginTracksProvisional", func(t *testing.T) {
		set, _ := newPendingSet()
		set.Begin("a", "first")

		entry, ok := set.Get("a")
		require.True(t, ok)
		assert.Equal(t, businessflow.PendingStateProvisional, entry.State)
		assert.Equal(t, "first", entry.Value)
		assert.NoError(t, entry.Err)
		assert.Equal(t, 1, set.Len())
	})

	t.Run("ConfirmDropsTheEntry", func(t *testing.T) {
		set, _ := newPendingSet()
		set.Begin("a", "first")
		set.Confirm("a")

		_, ok := set.Get("a")
		assert.False(t, ok)
		assert.Equal(t, 0, set.Len())
	})

	t.Run("FailKeepsTheEntryWithError", func(t *testing.T) {
		set, _ := newPendingSet()
		set.Begin("a", "first")
		set.Fail("a", errors.New("downstream rejected"))

		entry, ok := set.Get("a")
		require.True(t, ok)
		assert.Equal(t, businessflow.PendingStateFailed, entry.State)
		assert.EqualError(t, entry.Err, "downstream rejected")
	})

	t.Run("FailOnUnknownKeyIsNoop", func(t *testing.T) {
		set, _ := newPendingSet()
		set.Fail("ghost", errors.New("ignored"))
		assert.Equal(t, 0, set.Len())
	})

	t.Run("ResolveDropsAFailedEntry", func(t *testing.T) {
		set, _ := newPendingSet()
		set.Begin("a", "first")
		set.Fail("a", errors.New("boom"))
		set.Resolve("a")

		_, ok := set.Get("a")
		assert.False(t, ok)
	})

	t.Run("RetryViaBeginResetsToProvisional", func(t *testing.T) {
		set, _ := newPendingSet()
		set.Begin("a", "first")
		set.Fail("a", errors.New("boom"))
		set.Begin("a", "second")

		entry, ok := set.Get("a")
		require.True(t, ok)
		assert.Equal(t, businessflow.PendingStateProvisional, entry.State)
		assert.Equal(t, "second", entry.Value)
		assert.NoError(t, entry.Err)
	})
}

func TestPendingSetFailedFilter(t *testing.T) {
	set, _ := newPendingSet()
	set.Begin("ok", "delivered")
	set.Begin("bad", "stuck")
	set.Begin("inflight", "waiting")
	set.Fail("bad", errors.New("boom"))

	failed := set.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "bad", failed[0].Key)
	assert.Equal(t, 3, set.Len())
}

func TestPendingSetListOrdering(t *testing.T) {
	set, _ := newPendingSet()
	set.Begin("first", "1")
	set.Begin("second", "2")
	set.Begin("third", "3")

	// Failing "first" re-stamps it, moving it to the back of the list.
	set.Fail("first", errors.New("boom"))

	entries := set.List()
	require.Len(t, entries, 3)
	assert.Equal(t, "second", entries[0].Key)
	assert.Equal(t, "third", entries[1].Key)
	assert.Equal(t, "first", entries[2].Key)
}
