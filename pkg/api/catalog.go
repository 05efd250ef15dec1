package api

import (
	"context"

	"github.com/meshql/mongodbc/pkg/cursor"
	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/handles"
	"github.com/meshql/mongodbc/pkg/metadata"
	"github.com/meshql/mongodbc/pkg/odbc"
	"github.com/meshql/mongodbc/pkg/pattern"
	"github.com/meshql/mongodbc/pkg/types"
)

// TablesW is the table listing with its two enumeration special cases: a
// bare "%" catalog lists databases, a bare "%" table type lists the
// supported table types, and anything else walks collections across the
// matching databases.
func (d *Driver) TablesW(stmtH handles.Handle, catalog, schema, table, tableType string) odbc.SqlReturn {
	return d.guard("SQLTablesW", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags

		conn, ok := d.Arena.Conn(stmt.Conn)
		if !ok {
			return fail(diags, errors.FunctionSequence("statement's connection is gone"))
		}
		conn.Mu.RLock()
		mongoConn := conn.Mongo
		conn.Mu.RUnlock()
		if mongoConn == nil {
			return fail(diags, errors.ConnectionNotOpen())
		}

		ctx := context.Background()
		var cur cursor.Cursor
		switch {
		case catalog == odbc.SQLAllCatalogs && schema == "" && table == "" && tableType == "":
			names, err := mongoConn.ListDatabaseNames(ctx)
			if err != nil {
				return fail(diags, err)
			}
			cur = cursor.Databases(names, pattern.Literal(""))

		case tableType == odbc.SQLAllTableTypes && catalog == "" && schema == "" && table == "":
			cur = cursor.TableTypes()

		default:
			catMatch, err := pattern.Compile(catalog)
			if err != nil {
				return fail(diags, errors.General(err))
			}
			tblMatch, err := pattern.Compile(table)
			if err != nil {
				return fail(diags, errors.General(err))
			}

			names, err := mongoConn.ListDatabaseNames(ctx)
			if err != nil {
				return fail(diags, err)
			}
			dbs := names[:0]
			for _, n := range names {
				if catMatch.Matches(n) {
					dbs = append(dbs, n)
				}
			}
			cur = cursor.NewTables(dbs, mongoConn.ListCollections, tblMatch, tableType)
		}

		return d.attachCursor(stmt, cur)
	})
}

// GetTypeInfo opens the type catalog listing, filtered to dataType unless
// the unknown-type sentinel asks for everything.
func (d *Driver) GetTypeInfo(stmtH handles.Handle, dataType odbc.SqlDataType) odbc.SqlReturn {
	return d.guard("SQLGetTypeInfo", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}

		mode := types.ModeStandard
		if conn, ok := d.Arena.Conn(stmt.Conn); ok {
			conn.Mu.RLock()
			mode = conn.TypeMode
			conn.Mu.RUnlock()
		}
		return d.attachCursor(stmt, cursor.TypeInfo(dataType, mode))
	})
}

// PrimaryKeysW reports an empty listing: collections expose no declared
// primary keys through SQL.
func (d *Driver) PrimaryKeysW(stmtH handles.Handle, catalog, schema, table string) odbc.SqlReturn {
	return d.guard("SQLPrimaryKeysW", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		return d.attachCursor(stmt, cursor.Empty(metadata.PrimaryKeysColumns()))
	})
}

// ForeignKeysW reports an empty listing for the same reason.
func (d *Driver) ForeignKeysW(stmtH handles.Handle, pkCatalog, pkTable, fkCatalog, fkTable string) odbc.SqlReturn {
	return d.guard("SQLForeignKeysW", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		return d.attachCursor(stmt, cursor.Empty(metadata.ForeignKeysColumns()))
	})
}

// attachCursor installs a freshly built cursor, closing any predecessor.
func (d *Driver) attachCursor(stmt *handles.Stmt, cur cursor.Cursor) odbc.SqlReturn {
	stmt.Mu.Lock()
	old := stmt.ResetCursor()
	stmt.Cursor = cur
	stmt.State = handles.StmtHasResultSet
	stmt.RowsAffected = -1
	stmt.Mu.Unlock()
	if old != nil {
		_ = old.Close(context.Background())
	}
	return odbc.Success
}
