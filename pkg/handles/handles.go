// Package handles implements the driver's handle hierarchy: environment,
// connection, statement, and descriptor objects addressed through opaque
// generation-checked tokens rather than raw pointers. A stale or forged
// token resolves to nothing instead of to freed memory.
package handles

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/meshql/mongodbc/pkg/connection"
	"github.com/meshql/mongodbc/pkg/cursor"
	"github.com/meshql/mongodbc/pkg/odbc"
	"github.com/meshql/mongodbc/pkg/types"
)

// EnvState tracks whether an environment currently owns connections.
type EnvState int

const (
	EnvAllocated EnvState = iota
	EnvConnectionAllocated
)

// ConnState tracks a connection's lifecycle.
type ConnState int

const (
	ConnAllocated ConnState = iota
	ConnConnected
	ConnStatementAllocated
)

// StmtState tracks a statement's lifecycle. A statement returns to
// Allocated when its cursor is closed.
type StmtState int

const (
	StmtAllocated StmtState = iota
	StmtPrepared
	StmtExecuting
	StmtHasResultSet
)

// Env is the top of the handle hierarchy.
type Env struct {
	Mu          sync.RWMutex
	State       EnvState
	ODBCVersion odbc.ODBCVersion
	Diags       Diagnostics

	connections map[Handle]struct{}
}

// Conn owns the MongoDB client plus the statements and descriptors
// allocated under it.
type Conn struct {
	Mu    sync.RWMutex
	State ConnState
	Env   Handle
	Diags Diagnostics

	Config   *connection.Config
	Mongo    *connection.Connection
	TypeMode types.Mode
	Logger   zerolog.Logger

	statements  map[Handle]struct{}
	descriptors map[Handle]struct{}
}

// StmtAttrs holds the settable statement attributes the driver honors.
// Values outside the supported range are substituted, not stored.
type StmtAttrs struct {
	RowArraySize     uint64
	QueryTimeoutSecs uint64
	MaxRows          uint64
	RowBindType      uint64
}

// Binding is one bound output column registered through column binding.
type Binding struct {
	TargetType odbc.CDataType
	Buffer     []byte
	IndPtr     *int64
}

// Stmt is an executable statement handle.
type Stmt struct {
	Mu    sync.RWMutex
	State StmtState
	Conn  Handle
	Diags Diagnostics

	Attrs    StmtAttrs
	Query    string
	Cursor   cursor.Cursor
	Bindings map[uint16]Binding

	// RowsAffected is -1 for result-set producing statements.
	RowsAffected int64

	// getData streaming position: which column was last read piecewise
	// and how far into its rendered value the application has consumed.
	GetDataCol    uint16
	GetDataOffset int
}

// Desc is an explicitly allocated descriptor. The driver exposes the
// handle lifecycle for compatibility; descriptor fields route through the
// statement they are associated with.
type Desc struct {
	Mu    sync.RWMutex
	Conn  Handle
	Diags Diagnostics
}

// NewStmtAttrs is the attribute defaults a fresh statement carries.
func NewStmtAttrs() StmtAttrs {
	return StmtAttrs{
		RowArraySize: 1,
		RowBindType:  0, // column-wise binding
	}
}

// ResetCursor closes and detaches the statement's cursor, returning the
// statement to the allocated state. Callers hold the statement lock.
func (s *Stmt) ResetCursor() cursor.Cursor {
	c := s.Cursor
	s.Cursor = nil
	s.State = StmtAllocated
	s.GetDataCol = 0
	s.GetDataOffset = 0
	return c
}
