package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), DriverPgx, "")
	require.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mysql", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestOpenSQLite_InMemory(t *testing.T) {
	t.Parallel()

	gdb, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	require.NoError(t, gdb.Exec("CREATE TABLE t (v INTEGER)").Error)
	require.NoError(t, gdb.Exec("INSERT INTO t (v) VALUES (42)").Error)

	var v int
	require.NoError(t, gdb.Raw("SELECT v FROM t").Scan(&v).Error)
	assert.Equal(t, 42, v)
}
