package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/beacon/internal/domain"
)

type fakePresence map[domain.UserID]bool

func (f fakePresence) IsOnline(uid domain.UserID) bool { return f[uid] }

type fakePurger struct {
	mu     sync.Mutex
	purged []domain.CallID
}

func (f *fakePurger) Purge(id domain.CallID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purged = append(f.purged, id)
}

func (f *fakePurger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.purged)
}

func newTestCalls(online ...domain.UserID) (*Calls, *fakePurger) {
	p := fakePresence{}
	for _, uid := range online {
		p[uid] = true
	}
	purger := &fakePurger{}
	return NewCalls(p, purger), purger
}

func TestCreateCallReceiverOffline(t *testing.T) {
	c, _ := newTestCalls("a")
	_, err := c.Create("a", "b", domain.CallVideo)
	require.ErrorIs(t, err, domain.ErrReceiverOffline)
}

func TestCreateCallValidation(t *testing.T) {
	c, _ := newTestCalls("a", "b")

	_, err := c.Create("a", "b", "screenshare")
	require.ErrorIs(t, err, domain.ErrInvalidCallType)

	_, err = c.Create("a", "a", domain.CallAudio)
	require.ErrorIs(t, err, domain.ErrSelfCall)
}

func TestCreateCallBusyGuards(t *testing.T) {
	c, _ := newTestCalls("a", "b", "x", "y")

	first, err := c.Create("a", "b", domain.CallAudio)
	require.NoError(t, err)
	require.Equal(t, domain.CallRinging, first.Status)
	require.NotEmpty(t, first.ID)

	_, err = c.Create("a", "x", domain.CallAudio)
	require.ErrorIs(t, err, domain.ErrCallerBusy)

	_, err = c.Create("x", "b", domain.CallAudio)
	require.ErrorIs(t, err, domain.ErrReceiverBusy)

	// once the first call connects, both parties may be called again
	_, err = c.Accept(first.ID, "b")
	require.NoError(t, err)
	_, err = c.Create("x", "b", domain.CallAudio)
	require.NoError(t, err)
}

func TestCallLifecycle(t *testing.T) {
	c, purger := newTestCalls("a", "b")

	sess, err := c.Create("a", "b", domain.CallVideo)
	require.NoError(t, err)

	// caller may not accept their own call
	_, err = c.Accept(sess.ID, "a")
	require.ErrorIs(t, err, domain.ErrForbidden)

	// stranger may not even look at it
	_, err = c.Get(sess.ID, "mallory")
	require.ErrorIs(t, err, domain.ErrForbidden)

	got, err := c.Accept(sess.ID, "b")
	require.NoError(t, err)
	require.Equal(t, domain.CallConnected, got.Status)

	got, err = c.End(sess.ID, "a")
	require.NoError(t, err)
	require.Equal(t, domain.CallEnded, got.Status)
	require.Equal(t, 1, purger.count())

	// ended is terminal
	_, err = c.Accept(sess.ID, "b")
	require.ErrorIs(t, err, domain.ErrCallEnded)
	_, err = c.End(sess.ID, "b")
	require.ErrorIs(t, err, domain.ErrCallEnded)
}

func TestRejectOnlyWhileRinging(t *testing.T) {
	c, purger := newTestCalls("a", "b")

	sess, err := c.Create("a", "b", domain.CallAudio)
	require.NoError(t, err)

	got, err := c.Reject(sess.ID, "a")
	require.NoError(t, err)
	require.Equal(t, domain.CallEnded, got.Status)
	require.Equal(t, 1, purger.count())

	sess, err = c.Create("a", "b", domain.CallAudio)
	require.NoError(t, err)
	_, err = c.Accept(sess.ID, "b")
	require.NoError(t, err)
	_, err = c.Reject(sess.ID, "b")
	require.ErrorIs(t, err, domain.ErrNotRinging)
}

func TestGetUnknownCall(t *testing.T) {
	c, _ := newTestCalls("a", "b")
	_, err := c.Get("nope", "a")
	require.ErrorIs(t, err, domain.ErrCallNotFound)
}

func TestConcurrentCreateSameCallerOneWins(t *testing.T) {
	c, _ := newTestCalls("a", "b", "x")

	var wg sync.WaitGroup
	results := make([]error, 2)
	receivers := []domain.UserID{"b", "x"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = c.Create("a", receivers[i], domain.CallAudio)
		}(i)
	}
	wg.Wait()

	var ok, busy int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case err == domain.ErrCallerBusy:
			busy++
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, busy)
}

func TestConcurrentCreateSameReceiverOneWins(t *testing.T) {
	c, _ := newTestCalls("a", "b", "x")

	var wg sync.WaitGroup
	results := make([]error, 2)
	callers := []domain.UserID{"a", "x"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = c.Create(callers[i], "b", domain.CallAudio)
		}(i)
	}
	wg.Wait()

	var ok, busy int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case err == domain.ErrReceiverBusy:
			busy++
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, busy)
}

func TestSweepExpiredEndsStaleRinging(t *testing.T) {
	c, purger := newTestCalls("a", "b", "x", "y")

	stale, err := c.Create("a", "b", domain.CallAudio)
	require.NoError(t, err)

	// second call created "later" stays ringing
	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	fresh, err := c.Create("x", "y", domain.CallAudio)
	require.NoError(t, err)

	expired := c.SweepExpired(time.Minute)
	require.Len(t, expired, 1)
	require.Equal(t, stale.ID, expired[0].ID)
	require.Equal(t, domain.CallEnded, expired[0].Status)
	require.Equal(t, 1, purger.count())

	_, err = c.Get(stale.ID, "a")
	require.ErrorIs(t, err, domain.ErrCallNotFound)

	got, err := c.Get(fresh.ID, "x")
	require.NoError(t, err)
	require.Equal(t, domain.CallRinging, got.Status)
}

func TestSweepDropsEndedSessions(t *testing.T) {
	c, _ := newTestCalls("a", "b")

	sess, err := c.Create("a", "b", domain.CallAudio)
	require.NoError(t, err)
	_, err = c.End(sess.ID, "a")
	require.NoError(t, err)

	c.SweepExpired(time.Minute)
	_, err = c.Get(sess.ID, "a")
	require.ErrorIs(t, err, domain.ErrCallNotFound)
}
