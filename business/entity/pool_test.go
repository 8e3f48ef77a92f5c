package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFramePool(t *testing.T) {
	b := FramePool.Get(60)
	require.Len(t, *b, 60)
	FramePool.Put(b)
	require.Empty(t, *b)

	big := FramePool.Get(9000)
	require.Len(t, *big, 9000)
	FramePool.Put(big)

	huge := FramePool.Get(framePoolMaxSize + 1)
	FramePool.Put(huge)
	// oversized buffers are dropped, not truncated
	require.Len(t, *huge, framePoolMaxSize+1)
}
