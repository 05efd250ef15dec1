package cursor

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	driverrs "github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/metadata"
)

// RawSource is the stream of result documents backing a live query cursor.
// It is satisfied by the MongoDB driver cursor and by in-memory fixtures in
// tests.
type RawSource interface {
	Next(ctx context.Context) (bson.Raw, bool, error)
	Close(ctx context.Context) error
}

// MongoSource adapts a driver cursor to RawSource.
type MongoSource struct {
	C *mongo.Cursor
}

func (m *MongoSource) Next(ctx context.Context) (bson.Raw, bool, error) {
	if m.C.Next(ctx) {
		return m.C.Current, true, nil
	}
	if err := m.C.Err(); err != nil {
		return nil, false, err
	}
	return nil, false, nil
}

func (m *MongoSource) Close(ctx context.Context) error {
	return m.C.Close(ctx)
}

// Query streams an executed query's result documents. Each document nests
// fields under their datasource, so a column reads as a two-step lookup:
// the datasource sub-document, then the field.
type Query struct {
	position
	meta    []metadata.Column
	src     RawSource
	current bson.Raw
}

// NewQuery wraps a result stream with its resolved column metadata.
func NewQuery(meta []metadata.Column, src RawSource) *Query {
	return &Query{meta: meta, src: src}
}

func (q *Query) Next(ctx context.Context) (bool, []*driverrs.Error, error) {
	q.started = true
	doc, ok, err := q.src.Next(ctx)
	if err != nil {
		q.done = true
		q.current = nil
		return false, nil, driverrs.Database(err, serverErrorCode(err))
	}
	if !ok {
		q.done = true
		q.current = nil
		return false, nil, nil
	}
	q.current = doc
	return true, nil, nil
}

func (q *Query) Value(col uint16) (bson.RawValue, error) {
	if err := q.check(col, len(q.meta)); err != nil {
		return bson.RawValue{}, err
	}
	c := q.meta[col-1]
	v, err := q.current.LookupErr(c.Table, c.Name)
	if err != nil {
		if errors.Is(err, bsoncore.ErrElementNotFound) {
			return nullValue(), nil
		}
		return bson.RawValue{}, driverrs.General(err)
	}
	return v, nil
}

func (q *Query) Metadata() []metadata.Column { return q.meta }

func (q *Query) Close(ctx context.Context) error {
	return q.src.Close(ctx)
}

func serverErrorCode(err error) int32 {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var we mongo.WriteException
	if errors.As(err, &we) && len(we.WriteErrors) > 0 {
		return int32(we.WriteErrors[0].Code)
	}
	return 0
}
