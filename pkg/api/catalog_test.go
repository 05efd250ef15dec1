package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshql/mongodbc/pkg/connection"
	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/handles"
	"github.com/meshql/mongodbc/pkg/odbc"
	"github.com/meshql/mongodbc/pkg/translate"
)

func TestGetTypeInfoAllTypes(t *testing.T) {
	d := newTestDriver()
	_, _, stmtH := allocStmt(t, d)

	require.Equal(t, odbc.Success, d.GetTypeInfo(stmtH, odbc.SQLUnknownType))

	var n int16
	require.Equal(t, odbc.Success, d.NumResultCols(stmtH, &n))
	assert.Equal(t, int16(19), n)

	rows := 0
	for {
		ret := d.Fetch(stmtH)
		if ret == odbc.NoData {
			break
		}
		require.Equal(t, odbc.Success, ret)
		rows++
	}
	assert.Equal(t, 21, rows)
}

func TestGetTypeInfoFiltered(t *testing.T) {
	d := newTestDriver()
	_, _, stmtH := allocStmt(t, d)

	require.Equal(t, odbc.Success, d.GetTypeInfo(stmtH, odbc.SQLBigInt))
	require.Equal(t, odbc.Success, d.Fetch(stmtH))

	buf := make([]byte, 32)
	var ind int64
	require.Equal(t, odbc.Success, d.GetData(stmtH, 1, odbc.CDataChar, buf, &ind))
	assert.Equal(t, "long", string(buf[:ind]))

	assert.Equal(t, odbc.NoData, d.Fetch(stmtH))
}

func TestPrimaryAndForeignKeysAreEmpty(t *testing.T) {
	d := newTestDriver()
	_, _, stmtH := allocStmt(t, d)

	require.Equal(t, odbc.Success, d.PrimaryKeysW(stmtH, "db", "", "foo"))
	var n int16
	require.Equal(t, odbc.Success, d.NumResultCols(stmtH, &n))
	assert.Equal(t, int16(6), n)
	assert.Equal(t, odbc.NoData, d.Fetch(stmtH))

	require.Equal(t, odbc.Success, d.ForeignKeysW(stmtH, "db", "foo", "db", "bar"))
	require.Equal(t, odbc.Success, d.NumResultCols(stmtH, &n))
	assert.Equal(t, int16(14), n)
	assert.Equal(t, odbc.NoData, d.Fetch(stmtH))
}

func TestTablesWRequiresConnection(t *testing.T) {
	d := newTestDriver()
	_, _, stmtH := allocStmt(t, d)

	assert.Equal(t, odbc.Error, d.TablesW(stmtH, "%", "", "", ""))
	diags, _ := d.Arena.Diagnostics(stmtH)
	rec, ok := diags.Record(1)
	require.True(t, ok)
	assert.Equal(t, "08003", rec.State.ODBC3)
}

func TestTableTypesListing(t *testing.T) {
	d := newTestDriver()
	_, connH, stmtH := allocStmt(t, d)

	// Table-type enumeration never touches the server, but the statement
	// still demands a connected handle.
	conn, _ := d.Arena.Conn(connH)
	conn.Mu.Lock()
	conn.Mongo = &connection.Connection{Cluster: connection.ClusterCommunity}
	conn.Mu.Unlock()

	require.Equal(t, odbc.Success, d.TablesW(stmtH, "", "", "", odbc.SQLAllTableTypes))

	types := []string{}
	buf := make([]byte, 16)
	var ind int64
	for {
		ret := d.Fetch(stmtH)
		if ret == odbc.NoData {
			break
		}
		require.Equal(t, odbc.Success, ret)
		require.Equal(t, odbc.Success, d.GetData(stmtH, 4, odbc.CDataChar, buf, &ind))
		types = append(types, string(buf[:ind]))
	}
	assert.Equal(t, []string{"TABLE", "VIEW"}, types)
}

func connectFake(t *testing.T, d *Driver, connH handles.Handle, cluster connection.ClusterType, db string) {
	t.Helper()
	conn, ok := d.Arena.Conn(connH)
	require.True(t, ok)
	conn.Mu.Lock()
	conn.Mongo = &connection.Connection{Cluster: cluster, CurrentDB: db}
	conn.Mu.Unlock()
}

func TestExecDirectWCommunityCluster(t *testing.T) {
	d := newTestDriver()
	_, connH, stmtH := allocStmt(t, d)
	connectFake(t, d, connH, connection.ClusterCommunity, "db")

	sql := wide("SELECT 1")
	assert.Equal(t, odbc.Error, d.ExecDirectW(stmtH, sql, len(sql)))

	diags, _ := d.Arena.Diagnostics(stmtH)
	rec, ok := diags.Record(1)
	require.True(t, ok)
	assert.Equal(t, "HY000", rec.State.ODBC3)
	assert.Contains(t, rec.Message, "unsupported cluster")
}

func TestExecDirectWRequiresCurrentDatabase(t *testing.T) {
	d := newTestDriver()
	_, connH, stmtH := allocStmt(t, d)
	connectFake(t, d, connH, connection.ClusterAtlasDataFederation, "")

	sql := wide("SELECT 1")
	assert.Equal(t, odbc.Error, d.ExecDirectW(stmtH, sql, len(sql)))

	diags, _ := d.Arena.Diagnostics(stmtH)
	rec, ok := diags.Record(1)
	require.True(t, ok)
	assert.Contains(t, rec.Message, "no current database")
}

func TestExecDirectWTranslateLibraryUnavailable(t *testing.T) {
	d := newTestDriver()
	_, connH, stmtH := allocStmt(t, d)
	connectFake(t, d, connH, connection.ClusterEnterprise, "db")

	orig := loadTranslateLibrary
	loadTranslateLibrary = func() (*translate.Library, error) {
		return nil, errors.TranslateFailed("load", "cannot locate the translation library", true)
	}
	defer func() { loadTranslateLibrary = orig }()

	sql := wide("SELECT 1")
	assert.Equal(t, odbc.Error, d.ExecDirectW(stmtH, sql, len(sql)))

	diags, _ := d.Arena.Diagnostics(stmtH)
	rec, ok := diags.Record(1)
	require.True(t, ok)
	assert.Contains(t, rec.Message, "cannot locate")

	// The failed execution leaves the statement reusable.
	stmt, _ := d.Arena.Stmt(stmtH)
	assert.Equal(t, handles.StmtAllocated, stmt.State)
}
