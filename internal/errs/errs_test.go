package errs

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	require.Equal(t, "hello", Truncate("hello", 10))
	require.Equal(t, "hel", Truncate("hello", 3))
	require.Equal(t, strings.Repeat("x", 500), Truncate(strings.Repeat("x", 600), 500))
}

func TestBatchFailure_Unwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := &BatchFailure{BatchNum: 2, Cause: cause}
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "batch 2")
}

func TestErrorMessages(t *testing.T) {
	require.Contains(t, (&AlreadyExists{Index: "docs"}).Error(), "docs")
	require.Contains(t, (&Missing{Index: "docs"}).Error(), "docs")
	require.Contains(t, (&SnapshotPartial{State: "SUCCESS", ShardsFailed: 2}).Error(), "2 shards failed")
	require.Contains(t, (&SnapshotFailed{State: "FAILED"}).Error(), "FAILED")
	require.Contains(t, (&AmbiguousIndexerSelection{Paths: []string{"a", "b"}}).Error(), "a")
}
