package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitNext_PartitionsIntoCappedBatches(t *testing.T) {
	s := New(25000, 10000)
	require.Equal(t, int64(3), s.NumBatches())

	num, size, ok := s.EmitNext()
	require.True(t, ok)
	require.Equal(t, int64(1), num)
	require.Equal(t, int64(10000), size)

	num, size, ok = s.EmitNext()
	require.True(t, ok)
	require.Equal(t, int64(2), num)
	require.Equal(t, int64(10000), size)

	num, size, ok = s.EmitNext()
	require.True(t, ok)
	require.Equal(t, int64(3), num)
	require.Equal(t, int64(5000), size)

	_, _, ok = s.EmitNext()
	require.False(t, ok)
}

func TestEmitNext_SingleUndersizedBatch(t *testing.T) {
	s := New(5, 10000)
	require.Equal(t, int64(1), s.NumBatches())

	_, size, ok := s.EmitNext()
	require.True(t, ok)
	require.Equal(t, int64(5), size)

	_, _, ok = s.EmitNext()
	require.False(t, ok)
}

func TestFinished_NeverExceedsScheduled(t *testing.T) {
	s := New(100, 50)
	s.EmitNext()
	s.AddFinished(50)
	require.Equal(t, int64(50), s.Finished())
	require.LessOrEqual(t, s.Finished(), s.Scheduled())
	require.False(t, s.Done())

	s.EmitNext()
	s.AddFinished(50)
	require.True(t, s.Done())
}

func TestNumBatches_ZeroTotal(t *testing.T) {
	s := New(0, 100)
	require.Equal(t, int64(0), s.NumBatches())
	_, _, ok := s.EmitNext()
	require.False(t, ok)
}
