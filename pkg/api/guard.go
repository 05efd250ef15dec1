package api

import (
	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/handles"
	"github.com/meshql/mongodbc/pkg/odbc"
)

// guard runs one boundary function body with panic containment. The
// handle's ledger is cleared first, then the body runs; a panic or
// returned error becomes a diagnostic record plus an error return code
// instead of unwinding into the host application.
func (d *Driver) guard(fnName string, h handles.Handle, body func() odbc.SqlReturn) (ret odbc.SqlReturn) {
	diags, ok := d.Arena.Diagnostics(h)
	if !ok {
		return odbc.InvalidHandle
	}
	diags.Clear()

	timer := d.Metrics.StartTimer(fnName)
	defer func() {
		elapsed := timer.Stop()
		if r := recover(); r != nil {
			perr := errors.Panic(r)
			diags.Add(perr)
			d.Logger.Error().Str("function", fnName).Interface("panic", r).Msg("boundary panic contained")
			ret = odbc.Error
		}
		d.Metrics.IncrementCounter("odbc_function_calls_total", "function", fnName, "return", ret.String())
		d.Metrics.RecordHistogram("odbc_function_duration_seconds", elapsed, "function", fnName)
	}()

	return body()
}

// fail records err on the ledger and reports the error return code.
func fail(diags *handles.Diagnostics, err error) odbc.SqlReturn {
	diags.Add(errors.As(err))
	return odbc.Error
}

// warn records err as a warning; the caller still reports success.
func warn(diags *handles.Diagnostics, err error) odbc.SqlReturn {
	diags.Add(errors.As(err))
	return odbc.SuccessWithInfo
}
