package buildstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSourceDB_SplitsDbAndCollection(t *testing.T) {
	r := &Record{BackendURL: "catalog.courses"}
	db, err := r.SourceDB()
	require.NoError(t, err)
	require.Equal(t, "catalog", db)
}

func TestSourceCollection_SplitsDbAndCollection(t *testing.T) {
	r := &Record{BackendURL: "catalog.courses"}
	col, err := r.SourceCollection()
	require.NoError(t, err)
	require.Equal(t, "courses", col)
}

func TestSourceDB_RejectsMissingSeparator(t *testing.T) {
	r := &Record{BackendURL: "catalog"}
	_, err := r.SourceDB()
	require.Error(t, err)
}

func TestSourceCollection_RejectsEmptyCollection(t *testing.T) {
	r := &Record{BackendURL: "catalog."}
	_, err := r.SourceCollection()
	require.Error(t, err)
}

func TestSourceDB_SplitsOnlyFirstDot(t *testing.T) {
	r := &Record{BackendURL: "catalog.courses.archive"}
	db, err := r.SourceDB()
	require.NoError(t, err)
	require.Equal(t, "catalog", db)
	col, err := r.SourceCollection()
	require.NoError(t, err)
	require.Equal(t, "courses.archive", col)
}
