package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/meshql/mongodbc/pkg/odbc"
)

func TestNumericMetadata(t *testing.T) {
	require.NotNil(t, Long.Precision)
	assert.Equal(t, uint16(19), *Long.Precision)
	assert.Equal(t, uint16(0), *Long.Scale)
	assert.Equal(t, uint16(8), *Long.OctetLength)

	assert.Equal(t, uint16(10), *Int.Precision)
	assert.Equal(t, uint16(0), *Int.Scale)
	assert.Equal(t, uint16(4), *Int.OctetLength)

	assert.Equal(t, uint16(15), *Double.Precision)
	assert.Equal(t, uint16(15), *Double.Scale)
	assert.Equal(t, uint16(8), *Double.OctetLength)

	assert.Equal(t, uint16(34), *Decimal.Precision)
	assert.Equal(t, uint16(34), *Decimal.Scale)
	assert.Equal(t, uint16(16), *Decimal.OctetLength)

	assert.Equal(t, uint16(3), *Date.Scale)
	assert.Equal(t, uint16(24), *Date.Precision)

	assert.Equal(t, uint16(1), *Bool.Precision)
	assert.Equal(t, uint16(24), *ObjectID.Precision)
}

func TestModeMapping(t *testing.T) {
	// Scalar types map identically in both modes.
	for _, ti := range []*TypeInfo{String, Bool, Long, Int, Double, Date, BinData} {
		assert.Equal(t, ti.SQLType(ModeStandard), ti.SQLType(ModeSimple), ti.Name)
	}

	// Types without a SQL equivalent: unknown sentinel in standard mode,
	// wide varchar (extended JSON) in simple mode.
	for _, ti := range []*TypeInfo{Object, Array, Decimal, ObjectID, Timestamp, MinKey, MaxKey, Null, Any} {
		assert.Equal(t, odbc.SQLUnknownType, ti.SQLType(ModeStandard), ti.Name)
		assert.Equal(t, odbc.SQLWVarchar, ti.SQLType(ModeSimple), ti.Name)
	}
}

func TestListingOrder(t *testing.T) {
	l := Listing()
	require.Len(t, l, 21)

	// Ordered ascending by standard SQL type code.
	for i := 1; i < len(l); i++ {
		assert.LessOrEqual(t, int(l[i-1].SQLType(ModeStandard)), int(l[i].SQLType(ModeStandard)),
			"listing out of order at %s", l[i].Name)
	}

	assert.Equal(t, "string", l[0].Name)
	assert.Equal(t, "date", l[len(l)-1].Name)

	// Stable output: two calls return the same sequence.
	again := Listing()
	for i := range l {
		assert.Same(t, l[i], again[i])
	}
}

func TestFromName(t *testing.T) {
	assert.Same(t, Long, FromName("long"))
	assert.Same(t, Any, FromName("any"))
	assert.Same(t, Any, FromName("bson"))
	assert.Same(t, Any, FromName("somethingNew"), "unrecognized names degrade to the any type")
}

func TestFromBsonType(t *testing.T) {
	tests := []struct {
		bt   bsontype.Type
		want *TypeInfo
	}{
		{bsontype.Double, Double},
		{bsontype.String, String},
		{bsontype.EmbeddedDocument, Object},
		{bsontype.Array, Array},
		{bsontype.Binary, BinData},
		{bsontype.ObjectID, ObjectID},
		{bsontype.Boolean, Bool},
		{bsontype.DateTime, Date},
		{bsontype.Null, Null},
		{bsontype.Int32, Int},
		{bsontype.Int64, Long},
		{bsontype.Decimal128, Decimal},
		{bsontype.Timestamp, Timestamp},
		{bsontype.MinKey, MinKey},
		{bsontype.MaxKey, MaxKey},
	}
	for _, tt := range tests {
		assert.Same(t, tt.want, FromBsonType(tt.bt), tt.want.Name)
	}
}
