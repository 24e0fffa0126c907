package ident

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finreport-labs/balproc/internal/testutil"
)

// countingAllocator hands out sequential IDs and counts calls.
type countingAllocator struct {
	next  int
	calls int
	err   error
}

func (a *countingAllocator) NextID(_ context.Context) (int, error) {
	if a.err != nil {
		return 0, a.err
	}
	a.calls++
	a.next++
	return a.next + 1000, nil
}

func TestRegistry_NumericBypassesAllocation(t *testing.T) {
	alloc := &countingAllocator{}
	reg := NewRegistry(alloc, testutil.Logger(t))

	id, ok, err := reg.Resolve(context.Background(), "42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, id)
	assert.Zero(t, alloc.calls, "numeric tokens must not allocate")
}

func TestRegistry_MemoizesTemporaryTokens(t *testing.T) {
	alloc := &countingAllocator{}
	reg := NewRegistry(alloc, testutil.Logger(t))
	ctx := context.Background()

	first, ok, err := reg.Resolve(ctx, "ID1")
	require.NoError(t, err)
	require.True(t, ok)

	second, ok, err := reg.Resolve(ctx, "ID1")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, first, second, "same token must resolve to the same ID")
	assert.Equal(t, 1, alloc.calls, "repeated resolution must not re-allocate")
}

func TestRegistry_CaseAndWhitespaceNormalization(t *testing.T) {
	alloc := &countingAllocator{}
	reg := NewRegistry(alloc, testutil.Logger(t))
	ctx := context.Background()

	a, _, err := reg.Resolve(ctx, " temp_2 ")
	require.NoError(t, err)
	b, _, err := reg.Resolve(ctx, "TEMP_2")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, alloc.calls)
}

func TestRegistry_DistinctTokensGetDistinctIDs(t *testing.T) {
	alloc := &countingAllocator{}
	reg := NewRegistry(alloc, testutil.Logger(t))
	ctx := context.Background()

	a, _, err := reg.Resolve(ctx, "ID1")
	require.NoError(t, err)
	b, _, err := reg.Resolve(ctx, "ID2")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_UnresolvableShapes(t *testing.T) {
	alloc := &countingAllocator{}
	reg := NewRegistry(alloc, testutil.Logger(t))
	ctx := context.Background()

	for _, token := range []string{"", "   ", "Revenue", "article-7"} {
		id, ok, err := reg.Resolve(ctx, token)
		require.NoError(t, err, "token %q", token)
		assert.False(t, ok, "token %q should not resolve", token)
		assert.Zero(t, id)
	}
	assert.Zero(t, alloc.calls)
}

func TestRegistry_AllocationFailurePropagates(t *testing.T) {
	alloc := &countingAllocator{err: errors.New("connection lost")}
	reg := NewRegistry(alloc, testutil.Logger(t))

	_, ok, err := reg.Resolve(context.Background(), "ID9")
	require.Error(t, err)
	assert.False(t, ok)

	// A failed allocation must not poison the cache.
	alloc.err = nil
	id, ok, err := reg.Resolve(context.Background(), "ID9")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotZero(t, id)
}

func TestAllocatorFunc(t *testing.T) {
	fn := AllocatorFunc(func(_ context.Context) (int, error) { return 7, nil })
	id, err := fn.NextID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, id)
}
