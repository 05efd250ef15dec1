package handles

import (
	"sync"

	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/odbc"
)

// Handle is an opaque token addressing one arena slot: the slot index in
// the low 32 bits (offset by one so the zero Handle is never valid) and
// the slot's generation in the high 32. Freeing a slot bumps its
// generation, so tokens held past a free dereference to nothing.
type Handle uint64

// NullHandle is the invalid token.
const NullHandle Handle = 0

func makeHandle(index int, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(uint32(index+1)))
}

func (h Handle) index() (int, bool) {
	i := uint32(h)
	if i == 0 {
		return 0, false
	}
	return int(i - 1), true
}

func (h Handle) generation() uint32 {
	return uint32(h >> 32)
}

type slot struct {
	generation uint32
	kind       odbc.HandleType
	env        *Env
	conn       *Conn
	stmt       *Stmt
	desc       *Desc
}

func (s *slot) live() bool { return s.kind != 0 }

// Arena owns every allocated handle. All structural operations (allocate,
// free, parent-child bookkeeping) go through it.
type Arena struct {
	mu    sync.RWMutex
	slots []slot
	free  []int
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) allocate(fill func(*slot)) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	var idx int
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot{})
		idx = len(a.slots) - 1
	}
	s := &a.slots[idx]
	fill(s)
	return makeHandle(idx, s.generation)
}

func (a *Arena) resolve(h Handle, kind odbc.HandleType) (slot, bool) {
	idx, ok := h.index()
	if !ok {
		return slot{}, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if idx >= len(a.slots) {
		return slot{}, false
	}
	s := a.slots[idx]
	if !s.live() || s.generation != h.generation() || s.kind != kind {
		return slot{}, false
	}
	return s, true
}

// Kind reports the live handle's type, or false for a stale or null token.
func (a *Arena) Kind(h Handle) (odbc.HandleType, bool) {
	idx, ok := h.index()
	if !ok {
		return 0, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if idx >= len(a.slots) {
		return 0, false
	}
	s := &a.slots[idx]
	if !s.live() || s.generation != h.generation() {
		return 0, false
	}
	return s.kind, true
}

// AllocEnv allocates a root environment handle.
func (a *Arena) AllocEnv() Handle {
	return a.allocate(func(s *slot) {
		s.kind = odbc.HandleEnv
		s.env = &Env{connections: map[Handle]struct{}{}}
	})
}

// AllocConn allocates a connection under env, recording the child link and
// moving the environment to the connection-allocated state.
func (a *Arena) AllocConn(envHandle Handle) (Handle, error) {
	env, ok := a.Env(envHandle)
	if !ok {
		return NullHandle, errors.InvalidHandleType("connection parent must be an environment")
	}

	h := a.allocate(func(s *slot) {
		s.kind = odbc.HandleDbc
		s.conn = &Conn{
			Env:         envHandle,
			statements:  map[Handle]struct{}{},
			descriptors: map[Handle]struct{}{},
		}
	})

	env.Mu.Lock()
	env.connections[h] = struct{}{}
	env.State = EnvConnectionAllocated
	env.Mu.Unlock()
	return h, nil
}

// AllocStmt allocates a statement under a connection.
func (a *Arena) AllocStmt(connHandle Handle) (Handle, error) {
	conn, ok := a.Conn(connHandle)
	if !ok {
		return NullHandle, errors.InvalidHandleType("statement parent must be a connection")
	}

	conn.Mu.Lock()
	if conn.State == ConnAllocated {
		conn.Mu.Unlock()
		return NullHandle, errors.ConnectionNotOpen()
	}
	conn.Mu.Unlock()

	h := a.allocate(func(s *slot) {
		s.kind = odbc.HandleStmt
		s.stmt = &Stmt{
			Conn:         connHandle,
			Attrs:        NewStmtAttrs(),
			Bindings:     map[uint16]Binding{},
			RowsAffected: -1,
		}
	})

	conn.Mu.Lock()
	conn.statements[h] = struct{}{}
	conn.State = ConnStatementAllocated
	conn.Mu.Unlock()
	return h, nil
}

// AllocDesc allocates an explicit descriptor under a connection.
func (a *Arena) AllocDesc(connHandle Handle) (Handle, error) {
	conn, ok := a.Conn(connHandle)
	if !ok {
		return NullHandle, errors.InvalidHandleType("descriptor parent must be a connection")
	}

	h := a.allocate(func(s *slot) {
		s.kind = odbc.HandleDesc
		s.desc = &Desc{Conn: connHandle}
	})

	conn.Mu.Lock()
	conn.descriptors[h] = struct{}{}
	conn.Mu.Unlock()
	return h, nil
}

// Env resolves an environment token.
func (a *Arena) Env(h Handle) (*Env, bool) {
	s, ok := a.resolve(h, odbc.HandleEnv)
	if !ok {
		return nil, false
	}
	return s.env, true
}

// Conn resolves a connection token.
func (a *Arena) Conn(h Handle) (*Conn, bool) {
	s, ok := a.resolve(h, odbc.HandleDbc)
	if !ok {
		return nil, false
	}
	return s.conn, true
}

// Stmt resolves a statement token.
func (a *Arena) Stmt(h Handle) (*Stmt, bool) {
	s, ok := a.resolve(h, odbc.HandleStmt)
	if !ok {
		return nil, false
	}
	return s.stmt, true
}

// Desc resolves a descriptor token.
func (a *Arena) Desc(h Handle) (*Desc, bool) {
	s, ok := a.resolve(h, odbc.HandleDesc)
	if !ok {
		return nil, false
	}
	return s.desc, true
}

func (a *Arena) release(h Handle) {
	idx, ok := h.index()
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if idx >= len(a.slots) {
		return
	}
	s := &a.slots[idx]
	if !s.live() || s.generation != h.generation() {
		return
	}
	s.generation++
	s.kind = 0
	s.env, s.conn, s.stmt, s.desc = nil, nil, nil, nil
	a.free = append(a.free, idx)
}

// FreeEnv frees an environment. An environment with live connections is
// not freeable.
func (a *Arena) FreeEnv(h Handle) error {
	env, ok := a.Env(h)
	if !ok {
		return errors.InvalidHandleType("free target is not a live environment")
	}
	env.Mu.Lock()
	children := len(env.connections)
	env.Mu.Unlock()
	if children > 0 {
		return errors.StillHasChildren()
	}
	a.release(h)
	return nil
}

// FreeConn frees a connection and unlinks it from its environment; the
// environment returns to the plain allocated state when the last
// connection goes. A connection with live statements or descriptors is
// not freeable.
func (a *Arena) FreeConn(h Handle) error {
	conn, ok := a.Conn(h)
	if !ok {
		return errors.InvalidHandleType("free target is not a live connection")
	}

	conn.Mu.Lock()
	children := len(conn.statements) + len(conn.descriptors)
	envHandle := conn.Env
	conn.Mu.Unlock()
	if children > 0 {
		return errors.StillHasChildren()
	}

	if env, ok := a.Env(envHandle); ok {
		env.Mu.Lock()
		delete(env.connections, h)
		if len(env.connections) == 0 {
			env.State = EnvAllocated
		}
		env.Mu.Unlock()
	}
	a.release(h)
	return nil
}

// FreeStmt frees a statement and unlinks it from its connection. The
// caller is responsible for closing the statement's cursor first.
func (a *Arena) FreeStmt(h Handle) error {
	stmt, ok := a.Stmt(h)
	if !ok {
		return errors.InvalidHandleType("free target is not a live statement")
	}

	if conn, ok := a.Conn(stmt.Conn); ok {
		conn.Mu.Lock()
		delete(conn.statements, h)
		if len(conn.statements)+len(conn.descriptors) == 0 && conn.State == ConnStatementAllocated {
			conn.State = ConnConnected
		}
		conn.Mu.Unlock()
	}
	a.release(h)
	return nil
}

// FreeDesc frees an explicit descriptor.
func (a *Arena) FreeDesc(h Handle) error {
	desc, ok := a.Desc(h)
	if !ok {
		return errors.InvalidHandleType("free target is not a live descriptor")
	}

	if conn, ok := a.Conn(desc.Conn); ok {
		conn.Mu.Lock()
		delete(conn.descriptors, h)
		if len(conn.statements)+len(conn.descriptors) == 0 && conn.State == ConnStatementAllocated {
			conn.State = ConnConnected
		}
		conn.Mu.Unlock()
	}
	a.release(h)
	return nil
}

// Statements snapshots a connection's live statement handles.
func (a *Arena) Statements(connHandle Handle) []Handle {
	conn, ok := a.Conn(connHandle)
	if !ok {
		return nil
	}
	conn.Mu.RLock()
	defer conn.Mu.RUnlock()
	out := make([]Handle, 0, len(conn.statements))
	for h := range conn.statements {
		out = append(out, h)
	}
	return out
}

// Diagnostics returns the ledger of any live handle kind.
func (a *Arena) Diagnostics(h Handle) (*Diagnostics, bool) {
	kind, ok := a.Kind(h)
	if !ok {
		return nil, false
	}
	switch kind {
	case odbc.HandleEnv:
		env, _ := a.Env(h)
		return &env.Diags, true
	case odbc.HandleDbc:
		conn, _ := a.Conn(h)
		return &conn.Diags, true
	case odbc.HandleStmt:
		stmt, _ := a.Stmt(h)
		return &stmt.Diags, true
	case odbc.HandleDesc:
		desc, _ := a.Desc(h)
		return &desc.Diags, true
	}
	return nil, false
}
