package api

import (
	"context"

	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/handles"
	"github.com/meshql/mongodbc/pkg/odbc"
)

// AllocHandle allocates a handle of the requested kind under the given
// parent and writes the new token through out. Environments take a null
// parent; every other kind names its parent. Diagnostics for allocation
// failures land on the parent, which is the only live handle available.
func (d *Driver) AllocHandle(kind odbc.HandleType, parent handles.Handle, out *handles.Handle) odbc.SqlReturn {
	if out == nil {
		return odbc.Error
	}
	*out = handles.NullHandle

	if kind == odbc.HandleEnv {
		if parent != handles.NullHandle {
			return odbc.InvalidHandle
		}
		*out = d.Arena.AllocEnv()
		d.Metrics.IncrementCounter("odbc_handles_allocated_total", "kind", kind.String())
		return odbc.Success
	}

	return d.guard("SQLAllocHandle", parent, func() odbc.SqlReturn {
		diags, _ := d.Arena.Diagnostics(parent)

		var h handles.Handle
		var err error
		switch kind {
		case odbc.HandleDbc:
			h, err = d.Arena.AllocConn(parent)
		case odbc.HandleStmt:
			h, err = d.Arena.AllocStmt(parent)
		case odbc.HandleDesc:
			h, err = d.Arena.AllocDesc(parent)
		default:
			err = errors.InvalidHandleType("unknown handle kind requested")
		}
		if err != nil {
			return fail(diags, err)
		}
		*out = h
		d.Metrics.IncrementCounter("odbc_handles_allocated_total", "kind", kind.String())
		return odbc.Success
	})
}

// FreeHandle frees a handle. Parents with live children refuse with a
// function-sequence diagnostic; statement handles close their cursor on
// the way out.
func (d *Driver) FreeHandle(kind odbc.HandleType, h handles.Handle) odbc.SqlReturn {
	actual, ok := d.Arena.Kind(h)
	if !ok || actual != kind {
		return odbc.InvalidHandle
	}

	return d.guard("SQLFreeHandle", h, func() odbc.SqlReturn {
		diags, _ := d.Arena.Diagnostics(h)

		var err error
		switch kind {
		case odbc.HandleEnv:
			err = d.Arena.FreeEnv(h)
		case odbc.HandleDbc:
			err = d.freeConn(h)
		case odbc.HandleStmt:
			err = d.freeStmt(h)
		case odbc.HandleDesc:
			err = d.Arena.FreeDesc(h)
		}
		if err != nil {
			return fail(diags, err)
		}
		d.Metrics.IncrementCounter("odbc_handles_freed_total", "kind", kind.String())
		return odbc.Success
	})
}

func (d *Driver) freeStmt(h handles.Handle) error {
	stmt, ok := d.Arena.Stmt(h)
	if ok {
		stmt.Mu.Lock()
		c := stmt.ResetCursor()
		stmt.Mu.Unlock()
		if c != nil {
			_ = c.Close(context.Background())
		}
	}
	return d.Arena.FreeStmt(h)
}

func (d *Driver) freeConn(h handles.Handle) error {
	conn, ok := d.Arena.Conn(h)
	if !ok {
		return errors.InvalidHandleType("free target is not a live connection")
	}

	conn.Mu.Lock()
	mongo := conn.Mongo
	state := conn.State
	conn.Mu.Unlock()

	// Freeing a still-connected handle disconnects first; children still
	// block the free.
	if err := d.Arena.FreeConn(h); err != nil {
		return err
	}
	if state != handles.ConnAllocated && mongo != nil {
		_ = mongo.Disconnect(context.Background())
	}
	return nil
}
