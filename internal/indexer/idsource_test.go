package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSliceProvider_ChunksInOrder(t *testing.T) {
	ids := []string{"1", "2", "3", "4", "5"}
	p := newSliceProvider(ids, 2)
	ctx := context.Background()

	chunk, ok, err := p.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"1", "2"}, chunk)

	chunk, ok, err = p.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"3", "4"}, chunk)

	chunk, ok, err = p.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"5"}, chunk)

	_, ok, err = p.Next(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStreamProvider_ChunksUntilChannelCloses(t *testing.T) {
	ids := make(chan string, 5)
	errs := make(chan error, 1)
	for _, id := range []string{"a", "b", "c"} {
		ids <- id
	}
	close(ids)
	close(errs)

	p := newStreamProvider(ids, errs, 2)
	ctx := context.Background()

	chunk, ok, err := p.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, chunk)

	chunk, ok, err = p.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"c"}, chunk)

	_, ok, err = p.Next(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStreamProvider_PropagatesSourceError(t *testing.T) {
	ids := make(chan string)
	errs := make(chan error, 1)
	errs <- errors.New("cursor failure")
	close(ids)

	p := newStreamProvider(ids, errs, 2)
	_, ok, err := p.Next(context.Background())
	require.False(t, ok)
	require.Error(t, err)
}

func TestStreamProvider_RespectsContextCancellation(t *testing.T) {
	ids := make(chan string)
	errs := make(chan error)
	p := newStreamProvider(ids, errs, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := p.Next(ctx)
	require.False(t, ok)
	require.ErrorIs(t, err, context.Canceled)
}
