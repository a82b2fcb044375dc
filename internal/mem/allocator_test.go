package mem_test

import (
	"testing"

	"github.com/example/tinygraph/internal/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocAlignsAndTracksPeak(t *testing.T) {
	a := mem.NewAllocator(mem.NewHeapRuntime("test"), 8)

	off1, err := a.Alloc(5)
	require.NoError(t, err)
	assert.Equal(t, 0, off1)
	assert.Equal(t, 8, a.Used())

	off2, err := a.Alloc(16)
	require.NoError(t, err)
	assert.Equal(t, 8, off2)
	assert.Equal(t, 24, a.Used())
	assert.Equal(t, 24, a.Peak())
}

func TestFreeThenAllocFirstFits(t *testing.T) {
	a := mem.NewAllocator(mem.NewHeapRuntime("test"), 8)

	off1, err := a.Alloc(8)
	require.NoError(t, err)
	off2, err := a.Alloc(8)
	require.NoError(t, err)
	_, err = a.Alloc(8)
	require.NoError(t, err)

	require.NoError(t, a.Free(off1, 8))
	require.NoError(t, a.Free(off2, 8))

	// First-fit should reuse the lower of the two freed blocks.
	off4, err := a.Alloc(8)
	require.NoError(t, err)
	assert.Equal(t, off1, off4)

	// Peak does not regress even though Used dropped in between.
	assert.Equal(t, 24, a.Peak())
}

func TestFreeCoalescesAdjacentBlocks(t *testing.T) {
	a := mem.NewAllocator(mem.NewHeapRuntime("test"), 8)

	off1, _ := a.Alloc(8)
	off2, _ := a.Alloc(8)
	off3, _ := a.Alloc(8)

	require.NoError(t, a.Free(off1, 8))
	require.NoError(t, a.Free(off3, 8))
	require.NoError(t, a.Free(off2, 8))

	// The three adjacent frees should have coalesced into one 24-byte block,
	// satisfying a single allocation that wouldn't fit any one of them alone.
	off, err := a.Alloc(24)
	require.NoError(t, err)
	assert.Equal(t, off1, off)
}

func TestGetPtrMaterializesOnceAtPeakSize(t *testing.T) {
	a := mem.NewAllocator(mem.NewHeapRuntime("test"), 8)

	_, err := a.Alloc(10)
	require.NoError(t, err)
	_, err = a.Alloc(10)
	require.NoError(t, err)

	ptr, err := a.GetPtr()
	require.NoError(t, err)
	assert.Len(t, ptr, a.Peak())

	ptr2, err := a.GetPtr()
	require.NoError(t, err)
	assert.Same(t, &ptr[0], &ptr2[0])
}

func TestAllocAfterGetPtrIsFrozen(t *testing.T) {
	a := mem.NewAllocator(mem.NewHeapRuntime("test"), 8)
	_, err := a.Alloc(8)
	require.NoError(t, err)
	_, err = a.GetPtr()
	require.NoError(t, err)

	_, err = a.Alloc(8)
	require.ErrorIs(t, err, mem.ErrFrozenAllocator)

	err = a.Free(0, 8)
	require.ErrorIs(t, err, mem.ErrFrozenAllocator)
}

func TestZeroSizeAllocationIsFree(t *testing.T) {
	a := mem.NewAllocator(mem.NewHeapRuntime("test"), 8)
	off, err := a.Alloc(0)
	require.NoError(t, err)
	assert.Equal(t, 0, off)
	assert.Equal(t, 0, a.Used())
}

func TestInfoReportsSnapshot(t *testing.T) {
	a := mem.NewAllocator(mem.NewHeapRuntime("test"), 8)
	off, _ := a.Alloc(16)
	require.NoError(t, a.Free(off, 16))

	info := a.Info()
	assert.Equal(t, 0, info.Used)
	assert.Equal(t, 16, info.Peak)
	assert.Equal(t, 8, info.Alignment)
	assert.Equal(t, 16, info.FreeBytes)
}
