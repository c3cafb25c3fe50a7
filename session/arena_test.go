package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytesArenaAllocateWithinCapacity(t *testing.T) {
	a := NewBytesArena(64)

	first := a.Allocate(16)
	second := a.Allocate(16)
	require.Len(t, first, 16)
	require.Len(t, second, 16)

	first[0] = 0xAA
	second[0] = 0xBB
	require.Equal(t, byte(0xAA), first[0])
	require.Equal(t, byte(0xBB), second[0])
}

func TestBytesArenaGrowsOnOverflow(t *testing.T) {
	a := NewBytesArena(16)

	a.Allocate(16)
	next := a.Allocate(8)
	require.Len(t, next, 8)
}

func TestBytesArenaOversizeAllocation(t *testing.T) {
	a := NewBytesArena(16)

	big := a.Allocate(1024)
	require.Len(t, big, 1024)
}

func TestBytesArenaOldHandlesSurviveRegrowth(t *testing.T) {
	a := NewBytesArena(8)

	first := a.Allocate(8)
	first[0] = 0x42

	// This allocation exceeds the remaining space in the 8-byte backing
	// buffer, forcing a fresh allocation; first must still be valid.
	a.Allocate(8)
	require.Equal(t, byte(0x42), first[0])
}
