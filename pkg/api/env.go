package api

import (
	"fmt"

	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/handles"
	"github.com/meshql/mongodbc/pkg/odbc"
)

// SetEnvAttr sets an environment attribute. Only the ODBC version is
// stored; the remaining settable attributes accept their default value and
// reject everything else.
func (d *Driver) SetEnvAttr(envH handles.Handle, attr odbc.EnvAttr, value int64) odbc.SqlReturn {
	return d.guard("SQLSetEnvAttr", envH, func() odbc.SqlReturn {
		env, ok := d.Arena.Env(envH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &env.Diags

		switch attr {
		case odbc.AttrODBCVersion:
			switch odbc.ODBCVersion(value) {
			case odbc.OVODBC2, odbc.OVODBC3, odbc.OVODBC380:
				env.Mu.Lock()
				env.ODBCVersion = odbc.ODBCVersion(value)
				env.Mu.Unlock()
				return odbc.Success
			}
			return fail(diags, errors.InvalidAttrValue("SQL_ATTR_ODBC_VERSION"))
		case odbc.AttrOutputNTS:
			// Strings are always NUL-terminated; only true is accepted.
			if value == 1 {
				return odbc.Success
			}
			return fail(diags, errors.InvalidAttrValue("SQL_ATTR_OUTPUT_NTS"))
		case odbc.AttrConnectionPooling, odbc.AttrCPMatch:
			return fail(diags, errors.NotImplemented("connection pooling attributes"))
		}
		return fail(diags, errors.InvalidAttrValue(fmt.Sprintf("environment attribute %d", attr)))
	})
}

// GetEnvAttr reads an environment attribute into out.
func (d *Driver) GetEnvAttr(envH handles.Handle, attr odbc.EnvAttr, out *int64) odbc.SqlReturn {
	return d.guard("SQLGetEnvAttr", envH, func() odbc.SqlReturn {
		env, ok := d.Arena.Env(envH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &env.Diags
		if out == nil {
			return fail(diags, errors.General(fmt.Errorf("null value pointer")))
		}

		switch attr {
		case odbc.AttrODBCVersion:
			env.Mu.RLock()
			*out = int64(env.ODBCVersion)
			env.Mu.RUnlock()
			return odbc.Success
		case odbc.AttrOutputNTS:
			*out = 1
			return odbc.Success
		}
		return fail(diags, errors.InvalidAttrValue(fmt.Sprintf("environment attribute %d", attr)))
	})
}

// odbc3 reports whether the environment owning h was configured for the
// 3.x SQLSTATE dialect; unset environments default to 3.x.
func (d *Driver) odbc3For(h handles.Handle) bool {
	kind, ok := d.Arena.Kind(h)
	if !ok {
		return true
	}

	envH := handles.NullHandle
	switch kind {
	case odbc.HandleEnv:
		envH = h
	case odbc.HandleDbc:
		if conn, ok := d.Arena.Conn(h); ok {
			envH = conn.Env
		}
	case odbc.HandleStmt:
		if stmt, ok := d.Arena.Stmt(h); ok {
			if conn, ok := d.Arena.Conn(stmt.Conn); ok {
				envH = conn.Env
			}
		}
	case odbc.HandleDesc:
		if desc, ok := d.Arena.Desc(h); ok {
			if conn, ok := d.Arena.Conn(desc.Conn); ok {
				envH = conn.Env
			}
		}
	}

	env, ok := d.Arena.Env(envH)
	if !ok {
		return true
	}
	env.Mu.RLock()
	defer env.Mu.RUnlock()
	if env.ODBCVersion == 0 {
		return true
	}
	return env.ODBCVersion.IsODBC3()
}
