package api

import (
	"github.com/meshql/mongodbc/pkg/handles"
	"github.com/meshql/mongodbc/pkg/odbc"
)

// GetDiagRecW reads one record of a handle's diagnostics ledger. It does
// not run under guard: reading diagnostics must never clear the ledger
// being read, and never appends records of its own.
func (d *Driver) GetDiagRecW(kind odbc.HandleType, h handles.Handle, recNumber int16, stateBuf []uint16, nativePtr *int32, msgBuf []uint16, msgLen *int16) odbc.SqlReturn {
	actual, ok := d.Arena.Kind(h)
	if !ok || actual != kind {
		return odbc.InvalidHandle
	}
	diags, ok := d.Arena.Diagnostics(h)
	if !ok {
		return odbc.InvalidHandle
	}
	if recNumber < 1 {
		return odbc.Error
	}
	rec, ok := diags.Record(recNumber)
	if !ok {
		return odbc.NoData
	}

	state := rec.State.ForODBC3(d.odbc3For(h))
	if ret := odbc.WriteSQLState(state, stateBuf); ret != odbc.Success {
		return ret
	}
	if nativePtr != nil {
		*nativePtr = rec.NativeError
	}
	return odbc.WriteWideString(rec.Message, msgBuf, msgLen)
}

// GetDiagFieldW reads a single diagnostics field. Header fields
// (DiagNumber, DiagReturnCode) ignore recNumber; record fields return
// NoData when recNumber is out of range. Like GetDiagRecW it bypasses
// the clear-then-append discipline of the other entry points.
func (d *Driver) GetDiagFieldW(kind odbc.HandleType, h handles.Handle, recNumber int16, field odbc.DiagField, charBuf []uint16, strLen *int16, numOut *int64) odbc.SqlReturn {
	actual, ok := d.Arena.Kind(h)
	if !ok || actual != kind {
		return odbc.InvalidHandle
	}
	diags, ok := d.Arena.Diagnostics(h)
	if !ok {
		return odbc.InvalidHandle
	}

	switch field {
	case odbc.DiagNumber:
		if numOut == nil {
			return odbc.Error
		}
		*numOut = int64(diags.Count())
		return odbc.Success
	case odbc.DiagReturnCode:
		// The return code of the last call is not retained separately
		// from the ledger; report success when it is clean.
		if numOut == nil {
			return odbc.Error
		}
		if diags.Count() == 0 {
			*numOut = int64(odbc.Success)
		} else {
			*numOut = int64(odbc.Error)
		}
		return odbc.Success
	}

	rec, ok := diags.Record(recNumber)
	if !ok {
		return odbc.NoData
	}
	switch field {
	case odbc.DiagSQLState:
		return odbc.WriteWideString(rec.State.ForODBC3(d.odbc3For(h)), charBuf, strLen)
	case odbc.DiagNative:
		if numOut == nil {
			return odbc.Error
		}
		*numOut = int64(rec.NativeError)
		return odbc.Success
	case odbc.DiagMessageText:
		return odbc.WriteWideString(rec.Message, charBuf, strLen)
	case odbc.DiagRowNumber:
		if numOut == nil {
			return odbc.Error
		}
		*numOut = odbc.RowNumberUnknown
		return odbc.Success
	}
	return odbc.Error
}
