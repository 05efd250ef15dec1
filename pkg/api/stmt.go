package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/handles"
	"github.com/meshql/mongodbc/pkg/odbc"
)

// PrepareW records the statement text. Compilation is deferred to
// execution: both execution paths compile and run in one round anyway, so
// preparing is a pure state transition.
func (d *Driver) PrepareW(stmtH handles.Handle, sql []uint16, sqlLen int) odbc.SqlReturn {
	return d.guard("SQLPrepareW", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags

		text := strings.TrimSpace(odbc.WideToString(sql, sqlLen))
		if text == "" {
			return fail(diags, errors.General(fmt.Errorf("empty statement text")))
		}

		stmt.Mu.Lock()
		if c := stmt.ResetCursor(); c != nil {
			defer c.Close(context.Background())
		}
		stmt.Query = text
		stmt.State = handles.StmtPrepared
		stmt.Mu.Unlock()
		return odbc.Success
	})
}

// Execute runs a previously prepared statement.
func (d *Driver) Execute(stmtH handles.Handle) odbc.SqlReturn {
	return d.guard("SQLExecute", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags

		stmt.Mu.RLock()
		state := stmt.State
		sql := stmt.Query
		stmt.Mu.RUnlock()
		if state != handles.StmtPrepared || sql == "" {
			return fail(diags, errors.FunctionSequence("SQLExecute"))
		}
		return d.execute(stmtH, stmt, sql)
	})
}

// ExecDirectW prepares and executes in one call.
func (d *Driver) ExecDirectW(stmtH handles.Handle, sql []uint16, sqlLen int) odbc.SqlReturn {
	return d.guard("SQLExecDirectW", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags

		text := strings.TrimSpace(odbc.WideToString(sql, sqlLen))
		if text == "" {
			return fail(diags, errors.General(fmt.Errorf("empty statement text")))
		}

		stmt.Mu.Lock()
		stmt.Query = text
		stmt.Mu.Unlock()
		return d.execute(stmtH, stmt, text)
	})
}

// execute runs the shared execution tail: build the cursor, attach it, and
// move the statement to the result-set state. Callers have already
// cleared diagnostics via the guard.
func (d *Driver) execute(stmtH handles.Handle, stmt *handles.Stmt, sql string) odbc.SqlReturn {
	diags := &stmt.Diags

	conn, ok := d.Arena.Conn(stmt.Conn)
	if !ok {
		return fail(diags, errors.FunctionSequence("statement's connection is gone"))
	}

	stmt.Mu.Lock()
	if c := stmt.ResetCursor(); c != nil {
		defer c.Close(context.Background())
	}
	stmt.State = handles.StmtExecuting
	timeout := time.Duration(stmt.Attrs.QueryTimeoutSecs) * time.Second
	stmt.Mu.Unlock()

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cur, err := d.buildQueryCursor(ctx, conn, sql)

	stmt.Mu.Lock()
	defer stmt.Mu.Unlock()
	if err != nil {
		stmt.State = handles.StmtAllocated
		return fail(diags, err)
	}
	stmt.Cursor = cur
	stmt.State = handles.StmtHasResultSet
	stmt.RowsAffected = -1
	return odbc.Success
}

// Fetch advances the cursor one row and fills every bound column. The end
// of the result set reports NoData; warnings accumulated while producing
// the row surface as SuccessWithInfo.
func (d *Driver) Fetch(stmtH handles.Handle) odbc.SqlReturn {
	return d.guard("SQLFetch", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags

		stmt.Mu.Lock()
		defer stmt.Mu.Unlock()
		if stmt.Cursor == nil {
			return fail(diags, errors.FunctionSequence("SQLFetch"))
		}

		moved, warnings, err := stmt.Cursor.Next(context.Background())
		diags.AddAll(warnings)
		if err != nil {
			return fail(diags, err)
		}
		stmt.GetDataCol = 0
		stmt.GetDataOffset = 0
		if !moved {
			return odbc.NoData
		}

		ret := odbc.Success
		if len(warnings) > 0 {
			ret = odbc.SuccessWithInfo
		}
		for col, binding := range stmt.Bindings {
			r := d.fillBinding(stmt, col, binding, diags)
			if r == odbc.Error {
				return odbc.Error
			}
			if r == odbc.SuccessWithInfo {
				ret = odbc.SuccessWithInfo
			}
		}
		return ret
	})
}

// BindCol registers (or with a nil buffer, removes) an output binding.
func (d *Driver) BindCol(stmtH handles.Handle, col uint16, targetType odbc.CDataType, buffer []byte, indicator *int64) odbc.SqlReturn {
	return d.guard("SQLBindCol", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags
		if col == 0 {
			return fail(diags, errors.ColumnIndexOutOfBounds(0))
		}

		stmt.Mu.Lock()
		defer stmt.Mu.Unlock()
		if buffer == nil && indicator == nil {
			delete(stmt.Bindings, col)
			return odbc.Success
		}
		stmt.Bindings[col] = handles.Binding{
			TargetType: targetType,
			Buffer:     buffer,
			IndPtr:     indicator,
		}
		return odbc.Success
	})
}

// NumResultCols reports the current result set's column count.
func (d *Driver) NumResultCols(stmtH handles.Handle, out *int16) odbc.SqlReturn {
	return d.guard("SQLNumResultCols", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags
		if out == nil {
			return fail(diags, errors.General(fmt.Errorf("null column count pointer")))
		}

		stmt.Mu.RLock()
		defer stmt.Mu.RUnlock()
		if stmt.Cursor == nil {
			return fail(diags, errors.FunctionSequence("SQLNumResultCols"))
		}
		*out = int16(len(stmt.Cursor.Metadata()))
		return odbc.Success
	})
}

// RowCount reports rows affected: -1 for result-set statements, matching
// a driver that cannot know the cardinality up front.
func (d *Driver) RowCount(stmtH handles.Handle, out *int64) odbc.SqlReturn {
	return d.guard("SQLRowCount", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags
		if out == nil {
			return fail(diags, errors.General(fmt.Errorf("null row count pointer")))
		}
		stmt.Mu.RLock()
		*out = stmt.RowsAffected
		stmt.Mu.RUnlock()
		return odbc.Success
	})
}

// CloseCursor closes the open cursor; a statement without one is a
// function-sequence error per the 3.x contract.
func (d *Driver) CloseCursor(stmtH handles.Handle) odbc.SqlReturn {
	return d.guard("SQLCloseCursor", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags

		stmt.Mu.Lock()
		c := stmt.ResetCursor()
		stmt.Mu.Unlock()
		if c == nil {
			return fail(diags, errors.InvalidCursorState())
		}
		_ = c.Close(context.Background())
		return odbc.Success
	})
}

// Cancel aborts in-flight work by dropping the cursor. Statements that
// are merely allocated succeed as a no-op.
func (d *Driver) Cancel(stmtH handles.Handle) odbc.SqlReturn {
	return d.guard("SQLCancel", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}

		stmt.Mu.Lock()
		c := stmt.ResetCursor()
		stmt.Mu.Unlock()
		if c != nil {
			_ = c.Close(context.Background())
		}
		return odbc.Success
	})
}

// FreeStmt applies one of the reset options without freeing the handle.
func (d *Driver) FreeStmt(stmtH handles.Handle, option odbc.FreeStmtOption) odbc.SqlReturn {
	if option == odbc.FreeStmtDrop {
		return d.FreeHandle(odbc.HandleStmt, stmtH)
	}
	return d.guard("SQLFreeStmt", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags

		stmt.Mu.Lock()
		defer stmt.Mu.Unlock()
		switch option {
		case odbc.FreeStmtClose:
			if c := stmt.ResetCursor(); c != nil {
				defer c.Close(context.Background())
			}
			return odbc.Success
		case odbc.FreeStmtUnbind:
			stmt.Bindings = map[uint16]handles.Binding{}
			return odbc.Success
		case odbc.FreeStmtResetParams:
			// No parameter support; resetting nothing succeeds.
			return odbc.Success
		}
		return fail(diags, errors.InvalidAttrValue(fmt.Sprintf("SQLFreeStmt option %d", option)))
	})
}

// SetStmtAttrW sets a statement attribute. Unsupported values the driver
// can substitute are substituted with an option-changed warning instead of
// rejected.
func (d *Driver) SetStmtAttrW(stmtH handles.Handle, attr odbc.StmtAttr, value uint64) odbc.SqlReturn {
	return d.guard("SQLSetStmtAttrW", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags

		stmt.Mu.Lock()
		defer stmt.Mu.Unlock()
		switch attr {
		case odbc.AttrRowArraySize:
			if value != 1 {
				stmt.Attrs.RowArraySize = 1
				return warn(diags, errors.OptionValueChanged("SQL_ATTR_ROW_ARRAY_SIZE", "1"))
			}
			stmt.Attrs.RowArraySize = 1
			return odbc.Success
		case odbc.AttrRowBindType:
			if value != 0 {
				stmt.Attrs.RowBindType = 0
				return warn(diags, errors.OptionValueChanged("SQL_ATTR_ROW_BIND_TYPE", "SQL_BIND_BY_COLUMN"))
			}
			return odbc.Success
		case odbc.AttrQueryTimeout:
			stmt.Attrs.QueryTimeoutSecs = value
			return odbc.Success
		case odbc.AttrMaxRows:
			if value != 0 {
				stmt.Attrs.MaxRows = 0
				return warn(diags, errors.OptionValueChanged("SQL_ATTR_MAX_ROWS", "0"))
			}
			return odbc.Success
		case odbc.AttrCursorScrollable, odbc.AttrCursorSensitivity,
			odbc.AttrRowsFetchedPtr, odbc.AttrRowStatusPtr:
			return fail(diags, errors.NotImplemented(fmt.Sprintf("statement attribute %d", attr)))
		}
		return fail(diags, errors.InvalidAttrValue(fmt.Sprintf("statement attribute %d", attr)))
	})
}

// GetStmtAttrW reads a statement attribute.
func (d *Driver) GetStmtAttrW(stmtH handles.Handle, attr odbc.StmtAttr, out *uint64) odbc.SqlReturn {
	return d.guard("SQLGetStmtAttrW", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags
		if out == nil {
			return fail(diags, errors.General(fmt.Errorf("null value pointer")))
		}

		stmt.Mu.RLock()
		defer stmt.Mu.RUnlock()
		switch attr {
		case odbc.AttrRowArraySize:
			*out = stmt.Attrs.RowArraySize
			return odbc.Success
		case odbc.AttrRowBindType:
			*out = stmt.Attrs.RowBindType
			return odbc.Success
		case odbc.AttrQueryTimeout:
			*out = stmt.Attrs.QueryTimeoutSecs
			return odbc.Success
		case odbc.AttrMaxRows:
			*out = stmt.Attrs.MaxRows
			return odbc.Success
		}
		return fail(diags, errors.InvalidAttrValue(fmt.Sprintf("statement attribute %d", attr)))
	})
}
