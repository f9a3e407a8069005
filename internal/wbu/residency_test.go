package wbu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResidencyIndex_MoveToBack(t *testing.T) {
	idx := NewResidencyIndex()
	idx.Insert("a")
	idx.Insert("b")
	idx.Insert("c")
	require.Equal(t, 3, idx.Len())

	idx.MoveToBack("a")
	require.Equal(t, "a", string(idx.order.Back().Value.(ObjName)))
}

func TestResidencyIndex_MoveToBackAbsentIsNoOp(t *testing.T) {
	idx := NewResidencyIndex()
	idx.Insert("a")

	idx.MoveToBack("missing")
	require.Equal(t, 1, idx.Len())
	require.False(t, idx.Contains("missing"))
}
