package cothread

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriorityPolicyPicksGreatestTieLowerID(t *testing.T) {
	rt := Init(Priority, nil)

	var order []string
	lo, err := rt.Create(func(arg any) any { order = append(order, "lo"); return nil }, nil, &Attr{Priority: 1})
	require.NoError(t, err)
	hi, err := rt.Create(func(arg any) any { order = append(order, "hi"); return nil }, nil, &Attr{Priority: 5})
	require.NoError(t, err)
	mid, err := rt.Create(func(arg any) any { order = append(order, "mid"); return nil }, nil, &Attr{Priority: 5})
	require.NoError(t, err)

	_, err = rt.Join(hi)
	require.NoError(t, err)
	_, err = rt.Join(mid)
	require.NoError(t, err)
	_, err = rt.Join(lo)
	require.NoError(t, err)

	// hi and mid tie on priority 5; hi was created first (lower id) so it
	// must win the tie-break.
	require.Equal(t, []string{"hi", "mid", "lo"}, order)
	rt.Shutdown()
}

func TestSJFPicksSmallestEstimatedTime(t *testing.T) {
	rt := Init(ShortestJobFirst, nil)

	var order []string
	long, err := rt.Create(func(arg any) any { order = append(order, "long"); return nil }, nil, &Attr{EstimatedTime: 100})
	require.NoError(t, err)
	short, err := rt.Create(func(arg any) any { order = append(order, "short"); return nil }, nil, &Attr{EstimatedTime: 1})
	require.NoError(t, err)

	_, err = rt.Join(short)
	require.NoError(t, err)
	_, err = rt.Join(long)
	require.NoError(t, err)

	require.Equal(t, []string{"short", "long"}, order)
	rt.Shutdown()
}

func TestFCFSPicksEarliestCreated(t *testing.T) {
	rt := Init(FirstComeFirstServed, nil)

	var order []string
	first, err := rt.Create(func(arg any) any { order = append(order, "first"); return nil }, nil, nil)
	require.NoError(t, err)
	second, err := rt.Create(func(arg any) any { order = append(order, "second"); return nil }, nil, nil)
	require.NoError(t, err)

	_, err = rt.Join(first)
	require.NoError(t, err)
	_, err = rt.Join(second)
	require.NoError(t, err)

	require.Equal(t, []string{"first", "second"}, order)
	rt.Shutdown()
}
