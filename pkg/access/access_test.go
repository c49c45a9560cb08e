package access

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOracle struct {
	calls atomic.Int32
	err   error
	// members maps "userID\x00channelID" to membership
	members map[string]bool
}

func (f *fakeOracle) MemberOf(ctx context.Context, userID, channelID string) (bool, error) {
	f.calls.Add(1)
	if f.err != nil {
		return false, f.err
	}
	return f.members[cacheKey(userID, channelID)], nil
}

func TestMemberOf_ConsultsOracleOnMiss(t *testing.T) {
	oracle := &fakeOracle{members: map[string]bool{cacheKey("alice", "C1"): true}}
	c := New(oracle, time.Minute)

	ok, err := c.MemberOf(context.Background(), "alice", "C1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 1, oracle.calls.Load())
}

func TestMemberOf_ServesFromCache(t *testing.T) {
	oracle := &fakeOracle{members: map[string]bool{cacheKey("alice", "C1"): true}}
	c := New(oracle, time.Minute)

	_, err := c.MemberOf(context.Background(), "alice", "C1")
	require.NoError(t, err)
	_, err = c.MemberOf(context.Background(), "alice", "C1")
	require.NoError(t, err)

	assert.EqualValues(t, 1, oracle.calls.Load(), "second call should be served from cache")
}

func TestMemberOf_ExpiresAfterTTL(t *testing.T) {
	oracle := &fakeOracle{members: map[string]bool{cacheKey("alice", "C1"): true}}
	c := New(oracle, time.Millisecond)

	_, err := c.MemberOf(context.Background(), "alice", "C1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = c.MemberOf(context.Background(), "alice", "C1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, oracle.calls.Load(), "expired entry should re-consult the oracle")
}

func TestMemberOf_NonMemberNotCachedAsError(t *testing.T) {
	oracle := &fakeOracle{members: map[string]bool{}}
	c := New(oracle, time.Minute)

	ok, err := c.MemberOf(context.Background(), "bob", "C1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemberOf_PropagatesOracleError(t *testing.T) {
	oracle := &fakeOracle{err: assert.AnError}
	c := New(oracle, time.Minute)

	_, err := c.MemberOf(context.Background(), "alice", "C1")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestInvalidate_ForcesRecheck(t *testing.T) {
	oracle := &fakeOracle{members: map[string]bool{cacheKey("alice", "C1"): true}}
	c := New(oracle, time.Minute)

	_, err := c.MemberOf(context.Background(), "alice", "C1")
	require.NoError(t, err)

	c.Invalidate("alice", "C1")

	_, err = c.MemberOf(context.Background(), "alice", "C1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, oracle.calls.Load())
}

func TestNew_NonPositiveTTLDefaultsToPackageTTL(t *testing.T) {
	c := New(&fakeOracle{}, 0)
	assert.Equal(t, TTL, c.ttl)
}
