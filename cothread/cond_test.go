package cothread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCondBroadcastWakesAllInInsertionOrder(t *testing.T) {
	rt := Init(RoundRobin, nil)
	m := rt.NewMutex()
	c := rt.NewCond()

	var woken []int
	ready := 0

	const n = 4
	ids := make([]uint64, n)
	for i := 0; i < n; i++ {
		i := i
		id, err := rt.Create(func(arg any) any {
			require.NoError(t, m.Lock())
			ready++
			require.NoError(t, c.Wait(m))
			woken = append(woken, i)
			require.NoError(t, m.Unlock())
			return nil
		}, nil, nil)
		require.NoError(t, err)
		ids[i] = id
	}

	// Cycle the scheduler until every child has reached its Wait call.
	for ready < n {
		rt.Yield()
	}

	require.NoError(t, m.Lock())
	require.NoError(t, c.Broadcast())
	require.NoError(t, m.Unlock())

	for _, id := range ids {
		_, err := rt.Join(id)
		require.NoError(t, err)
	}

	require.Equal(t, []int{0, 1, 2, 3}, woken)
	rt.Shutdown()
}

func TestCondSignalWakesHeadOnly(t *testing.T) {
	rt := Init(RoundRobin, nil)
	m := rt.NewMutex()
	c := rt.NewCond()

	var woken []int
	ready := 0

	const n = 2
	ids := make([]uint64, n)
	for i := 0; i < n; i++ {
		i := i
		id, err := rt.Create(func(arg any) any {
			require.NoError(t, m.Lock())
			ready++
			require.NoError(t, c.Wait(m))
			woken = append(woken, i)
			require.NoError(t, m.Unlock())
			return nil
		}, nil, nil)
		require.NoError(t, err)
		ids[i] = id
	}

	for ready < n {
		rt.Yield()
	}

	require.NoError(t, m.Lock())
	require.NoError(t, c.Signal())
	require.NoError(t, m.Unlock())

	_, err := rt.Join(ids[0])
	require.NoError(t, err)
	require.Equal(t, []int{0}, woken)

	// the second waiter is still blocked
	require.Equal(t, Blocked, rt.Lookup(ids[1]).State())

	require.NoError(t, m.Lock())
	require.NoError(t, c.Signal())
	require.NoError(t, m.Unlock())
	_, err = rt.Join(ids[1])
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, woken)

	rt.Shutdown()
}

func TestCondTimedWaitExpiresAndReportsTimeout(t *testing.T) {
	rt := Init(RoundRobin, nil)
	m := rt.NewMutex()
	c := rt.NewCond()

	var timedOut bool
	id, err := rt.Create(func(arg any) any {
		require.NoError(t, m.Lock())
		to, werr := c.TimedWait(m, 60*time.Millisecond)
		timedOut = to
		require.NoError(t, werr)
		require.NoError(t, m.Unlock())
		return nil
	}, nil, nil)
	require.NoError(t, err)

	_, err = rt.Join(id)
	require.NoError(t, err)
	require.True(t, timedOut)

	rt.Shutdown()
}

func TestCondDestroyFailsWithWaiters(t *testing.T) {
	rt := Init(RoundRobin, nil)
	m := rt.NewMutex()
	c := rt.NewCond()

	id, err := rt.Create(func(arg any) any {
		require.NoError(t, m.Lock())
		_, werr := c.TimedWait(m, 200*time.Millisecond)
		require.NoError(t, werr)
		require.NoError(t, m.Unlock())
		return nil
	}, nil, nil)
	require.NoError(t, err)

	// One round trip is enough for round robin to dispatch the child up
	// to its blocking TimedWait call and cycle back.
	rt.Yield()
	require.Equal(t, ErrInUse, c.Destroy())

	_, err = rt.Join(id)
	require.NoError(t, err)
	rt.Shutdown()
}
