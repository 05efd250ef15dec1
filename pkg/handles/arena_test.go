package handles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/odbc"
)

func TestAllocHierarchy(t *testing.T) {
	a := NewArena()

	envH := a.AllocEnv()
	env, ok := a.Env(envH)
	require.True(t, ok)
	assert.Equal(t, EnvAllocated, env.State)

	connH, err := a.AllocConn(envH)
	require.NoError(t, err)
	assert.Equal(t, EnvConnectionAllocated, env.State)

	conn, ok := a.Conn(connH)
	require.True(t, ok)
	assert.Equal(t, envH, conn.Env)
	assert.Equal(t, ConnAllocated, conn.State)

	// Statements require a connected connection.
	_, err = a.AllocStmt(connH)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConnectionNotOpen))

	conn.Mu.Lock()
	conn.State = ConnConnected
	conn.Mu.Unlock()

	stmtH, err := a.AllocStmt(connH)
	require.NoError(t, err)
	assert.Equal(t, ConnStatementAllocated, conn.State)

	stmt, ok := a.Stmt(stmtH)
	require.True(t, ok)
	assert.Equal(t, connH, stmt.Conn)
	assert.Equal(t, StmtAllocated, stmt.State)
	assert.Equal(t, uint64(1), stmt.Attrs.RowArraySize)
	assert.Equal(t, int64(-1), stmt.RowsAffected)
}

func TestAllocWrongParentKind(t *testing.T) {
	a := NewArena()
	envH := a.AllocEnv()

	_, err := a.AllocStmt(envH)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidHandleType))

	_, err = a.AllocConn(NullHandle)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidHandleType))
}

func TestFreeRequiresTeardownOrder(t *testing.T) {
	a := NewArena()
	envH := a.AllocEnv()
	connH, err := a.AllocConn(envH)
	require.NoError(t, err)

	conn, _ := a.Conn(connH)
	conn.Mu.Lock()
	conn.State = ConnConnected
	conn.Mu.Unlock()

	stmtH, err := a.AllocStmt(connH)
	require.NoError(t, err)

	// Parents with live children refuse to go.
	err = a.FreeEnv(envH)
	assert.True(t, errors.IsCode(err, errors.CodeStillHasChildren))
	err = a.FreeConn(connH)
	assert.True(t, errors.IsCode(err, errors.CodeStillHasChildren))

	// Bottom-up teardown succeeds and restores parent states.
	require.NoError(t, a.FreeStmt(stmtH))
	assert.Equal(t, ConnConnected, conn.State)

	require.NoError(t, a.FreeConn(connH))
	env, _ := a.Env(envH)
	assert.Equal(t, EnvAllocated, env.State)

	require.NoError(t, a.FreeEnv(envH))
	_, ok := a.Env(envH)
	assert.False(t, ok)
}

func TestStaleTokensDoNotResolve(t *testing.T) {
	a := NewArena()
	envH := a.AllocEnv()
	require.NoError(t, a.FreeEnv(envH))

	// The freed token no longer resolves even though its slot is reused.
	reused := a.AllocEnv()
	_, ok := a.Env(envH)
	assert.False(t, ok, "stale generation must not resolve")
	_, ok = a.Env(reused)
	assert.True(t, ok)
	assert.NotEqual(t, envH, reused)

	// Double free reports an invalid handle, not a crash.
	err := a.FreeEnv(envH)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidHandleType))
}

func TestKindMismatchDoesNotResolve(t *testing.T) {
	a := NewArena()
	envH := a.AllocEnv()

	_, ok := a.Conn(envH)
	assert.False(t, ok)
	_, ok = a.Stmt(envH)
	assert.False(t, ok)

	kind, ok := a.Kind(envH)
	require.True(t, ok)
	assert.Equal(t, odbc.HandleEnv, kind)

	_, ok = a.Kind(NullHandle)
	assert.False(t, ok)
}

func TestDescriptorLifecycle(t *testing.T) {
	a := NewArena()
	envH := a.AllocEnv()
	connH, err := a.AllocConn(envH)
	require.NoError(t, err)

	descH, err := a.AllocDesc(connH)
	require.NoError(t, err)

	desc, ok := a.Desc(descH)
	require.True(t, ok)
	assert.Equal(t, connH, desc.Conn)

	err = a.FreeConn(connH)
	assert.True(t, errors.IsCode(err, errors.CodeStillHasChildren))

	require.NoError(t, a.FreeDesc(descH))
	require.NoError(t, a.FreeConn(connH))
}

func TestDiagnosticsResolution(t *testing.T) {
	a := NewArena()
	envH := a.AllocEnv()

	d, ok := a.Diagnostics(envH)
	require.True(t, ok)
	d.Add(errors.General(nil))
	assert.Equal(t, 1, d.Count())

	_, ok = a.Diagnostics(NullHandle)
	assert.False(t, ok)
}

func TestStatementsSnapshot(t *testing.T) {
	a := NewArena()
	envH := a.AllocEnv()
	connH, _ := a.AllocConn(envH)
	conn, _ := a.Conn(connH)
	conn.Mu.Lock()
	conn.State = ConnConnected
	conn.Mu.Unlock()

	s1, _ := a.AllocStmt(connH)
	s2, _ := a.AllocStmt(connH)

	got := a.Statements(connH)
	assert.ElementsMatch(t, []Handle{s1, s2}, got)
}
