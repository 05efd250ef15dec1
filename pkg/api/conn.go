package api

import (
	"context"
	"fmt"
	"time"

	"github.com/meshql/mongodbc/pkg/connection"
	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/handles"
	"github.com/meshql/mongodbc/pkg/odbc"
	"github.com/meshql/mongodbc/pkg/types"
)

// DriverConnectW parses a connection string, dials the cluster, and moves
// the connection handle to the connected state. The completed connection
// string is echoed into outConnStr; truncation is a warning, not a
// failure.
func (d *Driver) DriverConnectW(connH handles.Handle, inConnStr []uint16, inLen int, outConnStr []uint16, outLen *int16) odbc.SqlReturn {
	return d.guard("SQLDriverConnectW", connH, func() odbc.SqlReturn {
		conn, ok := d.Arena.Conn(connH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &conn.Diags

		conn.Mu.RLock()
		state := conn.State
		conn.Mu.RUnlock()
		if state != handles.ConnAllocated {
			return fail(diags, errors.FunctionSequence("SQLDriverConnectW"))
		}

		raw := odbc.WideToString(inConnStr, inLen)
		cfg, err := connection.ParseConnectionString(raw)
		if err != nil {
			return fail(diags, err)
		}

		ctx := context.Background()
		if cfg.LoginTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.LoginTimeout)
			defer cancel()
		}

		mongoConn, err := connection.Connect(ctx, cfg, d.Logger)
		if err != nil {
			return fail(diags, err)
		}

		mode := types.ModeStandard
		if cfg.SimpleTypes {
			mode = types.ModeSimple
		}

		conn.Mu.Lock()
		conn.Config = cfg
		conn.Mongo = mongoConn
		conn.TypeMode = mode
		conn.State = handles.ConnConnected
		conn.Logger = mongoConn.Logger()
		conn.Mu.Unlock()

		ret := odbc.WriteWideString(raw, outConnStr, outLen)
		if ret == odbc.SuccessWithInfo {
			return warn(diags, errors.RightTruncated(len(outConnStr)))
		}
		return odbc.Success
	})
}

// Disconnect tears down the MongoDB client and returns the handle to the
// allocated state. Live statements block the disconnect.
func (d *Driver) Disconnect(connH handles.Handle) odbc.SqlReturn {
	return d.guard("SQLDisconnect", connH, func() odbc.SqlReturn {
		conn, ok := d.Arena.Conn(connH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &conn.Diags

		if len(d.Arena.Statements(connH)) > 0 {
			return fail(diags, errors.StillHasChildren())
		}

		conn.Mu.Lock()
		if conn.State == handles.ConnAllocated {
			conn.Mu.Unlock()
			return fail(diags, errors.ConnectionNotOpen())
		}
		mongoConn := conn.Mongo
		conn.Mongo = nil
		conn.State = handles.ConnAllocated
		conn.Mu.Unlock()

		if mongoConn != nil {
			if err := mongoConn.Disconnect(context.Background()); err != nil {
				return warn(diags, err)
			}
		}
		return odbc.Success
	})
}

// SetConnectAttrW sets a connection attribute.
func (d *Driver) SetConnectAttrW(connH handles.Handle, attr odbc.ConnAttr, intValue int64, strValue []uint16) odbc.SqlReturn {
	return d.guard("SQLSetConnectAttrW", connH, func() odbc.SqlReturn {
		conn, ok := d.Arena.Conn(connH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &conn.Diags

		switch attr {
		case odbc.AttrLoginTimeout:
			if intValue < 0 {
				return fail(diags, errors.InvalidAttrValue("SQL_ATTR_LOGIN_TIMEOUT"))
			}
			conn.Mu.Lock()
			if conn.Config == nil {
				conn.Config = &connection.Config{}
			}
			conn.Config.LoginTimeout = time.Duration(intValue) * time.Second
			conn.Mu.Unlock()
			return odbc.Success
		case odbc.AttrCurrentCatalog:
			db := odbc.WideToString(strValue, -1)
			if db == "" {
				return fail(diags, errors.InvalidAttrValue("SQL_ATTR_CURRENT_CATALOG"))
			}
			conn.Mu.Lock()
			if conn.Mongo != nil {
				conn.Mongo.CurrentDB = db
			}
			if conn.Config == nil {
				conn.Config = &connection.Config{}
			}
			conn.Config.Database = db
			conn.Mu.Unlock()
			return odbc.Success
		case odbc.AttrConnectionTimeout:
			if intValue < 0 {
				return fail(diags, errors.InvalidAttrValue("SQL_ATTR_CONNECTION_TIMEOUT"))
			}
			conn.Mu.Lock()
			if conn.Mongo != nil {
				conn.Mongo.OperationTimeout = time.Duration(intValue) * time.Second
			}
			conn.Mu.Unlock()
			return odbc.Success
		}
		return fail(diags, errors.NotImplemented(fmt.Sprintf("connection attribute %d", attr)))
	})
}

// GetConnectAttrW reads a connection attribute; string attributes render
// through strOut with the usual truncation semantics.
func (d *Driver) GetConnectAttrW(connH handles.Handle, attr odbc.ConnAttr, intOut *int64, strOut []uint16, strLen *int16) odbc.SqlReturn {
	return d.guard("SQLGetConnectAttrW", connH, func() odbc.SqlReturn {
		conn, ok := d.Arena.Conn(connH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &conn.Diags

		conn.Mu.RLock()
		defer conn.Mu.RUnlock()

		switch attr {
		case odbc.AttrLoginTimeout:
			if intOut == nil {
				return fail(diags, errors.General(fmt.Errorf("null value pointer")))
			}
			if conn.Config != nil {
				*intOut = int64(conn.Config.LoginTimeout / time.Second)
			} else {
				*intOut = 0
			}
			return odbc.Success
		case odbc.AttrConnectionTimeout:
			if intOut == nil {
				return fail(diags, errors.General(fmt.Errorf("null value pointer")))
			}
			if conn.Mongo != nil {
				*intOut = int64(conn.Mongo.OperationTimeout / time.Second)
			} else {
				*intOut = 0
			}
			return odbc.Success
		case odbc.AttrCurrentCatalog:
			db := ""
			if conn.Mongo != nil {
				db = conn.Mongo.CurrentDB
			} else if conn.Config != nil {
				db = conn.Config.Database
			}
			ret := odbc.WriteWideString(db, strOut, strLen)
			if ret == odbc.SuccessWithInfo {
				return warn(diags, errors.RightTruncated(len(strOut)))
			}
			return ret
		}
		return fail(diags, errors.NotImplemented(fmt.Sprintf("connection attribute %d", attr)))
	})
}
