// Package cursor provides the row-source abstraction statement execution
// produces. Live query results, catalog listings, and the static type-info
// table all present the same interface so the fetch path never branches on
// where rows come from.
package cursor

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/metadata"
)

// Cursor is a forward-only row source. Next positions the cursor on the
// following row; Value reads a 1-based column of the current row. Reading
// before the first Next, or after Next has returned false, is an
// invalid-cursor-state error.
type Cursor interface {
	// Next advances to the next row. It returns whether a row is
	// available, any warnings accumulated while producing it, and a hard
	// error if advancing failed.
	Next(ctx context.Context) (bool, []*errors.Error, error)

	// Value returns the 1-based column's value from the current row. A
	// missing field reads as BSON null.
	Value(col uint16) (bson.RawValue, error)

	// Metadata describes the result columns. It is fixed for the life of
	// the cursor.
	Metadata() []metadata.Column

	// Close releases any resources backing the cursor.
	Close(ctx context.Context) error
}

// position tracks the shared cursor-state bookkeeping every variant needs.
type position struct {
	started bool
	done    bool
}

func (p *position) check(col uint16, ncols int) error {
	if !p.started || p.done {
		return errors.InvalidCursorState()
	}
	if col == 0 || int(col) > ncols {
		return errors.ColumnIndexOutOfBounds(col)
	}
	return nil
}

// bson.RawValue constructors for the static listings.

func stringValue(s string) bson.RawValue {
	t, data, err := bson.MarshalValue(s)
	if err != nil {
		return nullValue()
	}
	return bson.RawValue{Type: t, Value: data}
}

func int32Value(i int32) bson.RawValue {
	t, data, err := bson.MarshalValue(i)
	if err != nil {
		return nullValue()
	}
	return bson.RawValue{Type: t, Value: data}
}

func boolAsInt32(b bool) bson.RawValue {
	if b {
		return int32Value(1)
	}
	return int32Value(0)
}

func nullValue() bson.RawValue {
	return bson.RawValue{Type: bsontype.Null, Value: []byte{}}
}

// static is a cursor over a fixed in-memory row list; the catalog listings
// that can be materialized up front build on it.
type static struct {
	position
	meta []metadata.Column
	rows [][]bson.RawValue
	idx  int
}

func newStatic(meta []metadata.Column, rows [][]bson.RawValue) *static {
	return &static{meta: meta, rows: rows, idx: -1}
}

func (s *static) Next(context.Context) (bool, []*errors.Error, error) {
	s.started = true
	s.idx++
	if s.idx >= len(s.rows) {
		s.done = true
		return false, nil, nil
	}
	return true, nil, nil
}

func (s *static) Value(col uint16) (bson.RawValue, error) {
	if err := s.check(col, len(s.meta)); err != nil {
		return bson.RawValue{}, err
	}
	return s.rows[s.idx][col-1], nil
}

func (s *static) Metadata() []metadata.Column { return s.meta }

func (s *static) Close(context.Context) error { return nil }

// Empty is the placeholder cursor for operations that legitimately produce
// no rows, such as the primary- and foreign-key listings.
func Empty(meta []metadata.Column) Cursor {
	return newStatic(meta, nil)
}
