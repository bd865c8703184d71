// Package errs defines the error kinds of spec §7, shared by every
// component that raises or inspects one of them.
package errs

import "fmt"

// BadInput signals an invalid mode/steps/batch_size/ids argument, raised
// synchronously before any state change.
type BadInput struct{ Msg string }

func (e *BadInput) Error() string { return "bad input: " + e.Msg }

// AlreadyExists signals pre_index in mode=index found the destination
// index already present.
type AlreadyExists struct{ Index string }

func (e *AlreadyExists) Error() string { return fmt.Sprintf("index %q already exists", e.Index) }

// Missing signals pre_index in mode=resume/merge found the destination
// index absent.
type Missing struct{ Index string }

func (e *Missing) Error() string { return fmt.Sprintf("index %q does not exist", e.Index) }

// BatchFailure wraps a worker-side exception recorded as the first error
// of a do_index run.
type BatchFailure struct {
	BatchNum int64
	Cause    error
}

func (e *BatchFailure) Error() string {
	return fmt.Sprintf("batch %d failed: %v", e.BatchNum, e.Cause)
}

func (e *BatchFailure) Unwrap() error { return e.Cause }

// SnapshotPartial signals the search engine reported SUCCESS but with
// failed shards.
type SnapshotPartial struct {
	State        string
	ShardsFailed int
}

func (e *SnapshotPartial) Error() string {
	return fmt.Sprintf("snapshot state=%s but %d shards failed", e.State, e.ShardsFailed)
}

// SnapshotFailed signals the search engine reported FAILED or another
// non-success terminal state.
type SnapshotFailed struct{ State string }

func (e *SnapshotFailed) Error() string {
	return fmt.Sprintf("snapshot failed: state=%s", e.State)
}

// AmbiguousIndexerSelection signals more than one indexer_select path
// matched the build document.
type AmbiguousIndexerSelection struct{ Paths []string }

func (e *AmbiguousIndexerSelection) Error() string {
	return fmt.Sprintf("ambiguous indexer selection: matched paths %v", e.Paths)
}

// ConfigError signals a missing required config key.
type ConfigError struct{ Key string }

func (e *ConfigError) Error() string { return fmt.Sprintf("missing required config key %q", e.Key) }

// Truncate bounds an error message to the persisted-record length cap
// (spec §4.1: "truncated error text, ≤500 chars").
func Truncate(msg string, max int) string {
	if len(msg) <= max {
		return msg
	}
	return msg[:max]
}
