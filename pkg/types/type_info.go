// Package types holds the static catalog reconciling MongoDB's dynamic BSON
// type system with the fixed ODBC/SQL type system. Every document type maps
// to exactly one SQL type code per mode; types with no SQL equivalent map
// to the unknown-type sentinel in standard mode and collapse to a wide
// varchar (extended-JSON rendering) in simple mode.
//
// The numeric metadata (scale, precision, octet length) is fixed per type
// and reproduced exactly; BI tools cache these values.
package types

import (
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/meshql/mongodbc/pkg/odbc"
)

// Mode selects between full SQL type fidelity and the simplified mapping
// that renders extended types as strings.
type Mode int

const (
	ModeStandard Mode = iota
	ModeSimple
)

// TypeInfo describes one BSON type's SQL mapping. Optional fields are
// pointers; nil means the type-info listing reports NULL for that column.
type TypeInfo struct {
	Name            string
	sqlTypeStandard odbc.SqlDataType
	sqlTypeSimple   odbc.SqlDataType
	Searchable      int32
	CaseSensitive   bool
	FixedPrecScale  bool
	Scale           *uint16
	Precision       *uint16
	OctetLength     *uint16
	FixedBytesLen   *uint16
	LiteralPrefix   string
	LiteralSuffix   string
	NumPrecRadix    *int16
	Unsigned        *bool
	AutoUniqueValue *bool
}

// SQLType returns the mode-specific SQL type code.
func (t *TypeInfo) SQLType(mode Mode) odbc.SqlDataType {
	if mode == ModeSimple {
		return t.sqlTypeSimple
	}
	return t.sqlTypeStandard
}

// ColumnSize is the COLUMN_SIZE reported for the type, nil when undefined.
func (t *TypeInfo) ColumnSize(Mode) *uint16 {
	return t.Precision
}

func u16(v uint16) *uint16 { return &v }
func i16(v int16) *int16   { return &v }
func b(v bool) *bool       { return &v }

// collapse marks a standard-mode unknown type that simple mode renders as
// extended JSON text.
func collapse(t TypeInfo) *TypeInfo {
	t.sqlTypeStandard = odbc.SQLUnknownType
	t.sqlTypeSimple = odbc.SQLWVarchar
	return &t
}

// The catalog. Field values follow the vendor documentation for the Atlas
// SQL interface; treat them as normative rather than re-derived.
var (
	Double = &TypeInfo{
		Name:            "double",
		sqlTypeStandard: odbc.SQLDouble,
		sqlTypeSimple:   odbc.SQLDouble,
		Searchable:      odbc.PredBasic,
		Scale:           u16(15),
		Precision:       u16(15),
		OctetLength:     u16(8),
		FixedBytesLen:   u16(8),
		NumPrecRadix:    i16(2),
		Unsigned:        b(false),
		AutoUniqueValue: b(false),
	}
	String = &TypeInfo{
		Name:            "string",
		sqlTypeStandard: odbc.SQLWVarchar,
		sqlTypeSimple:   odbc.SQLWVarchar,
		Searchable:      odbc.Searchable,
		CaseSensitive:   true,
		LiteralPrefix:   "'",
		LiteralSuffix:   "'",
	}
	Object = collapse(TypeInfo{
		Name:       "object",
		Searchable: odbc.PredBasic,
	})
	Array = collapse(TypeInfo{
		Name:       "array",
		Searchable: odbc.PredBasic,
	})
	BinData = &TypeInfo{
		Name:            "binData",
		sqlTypeStandard: odbc.SQLBinary,
		sqlTypeSimple:   odbc.SQLBinary,
		Searchable:      odbc.PredNone,
	}
	Undefined = collapse(TypeInfo{
		Name:       "undefined",
		Searchable: odbc.PredBasic,
	})
	ObjectID = collapse(TypeInfo{
		Name:          "objectId",
		Searchable:    odbc.Searchable,
		Precision:     u16(24),
		LiteralPrefix: "'",
		LiteralSuffix: "'",
	})
	Bool = &TypeInfo{
		Name:            "bool",
		sqlTypeStandard: odbc.SQLBit,
		sqlTypeSimple:   odbc.SQLBit,
		Searchable:      odbc.PredBasic,
		Precision:       u16(1),
		OctetLength:     u16(1),
		FixedBytesLen:   u16(1),
	}
	Date = &TypeInfo{
		Name:            "date",
		sqlTypeStandard: odbc.SQLTypeTimestamp,
		sqlTypeSimple:   odbc.SQLTypeTimestamp,
		Searchable:      odbc.PredBasic,
		Scale:           u16(3),
		Precision:       u16(24),
		OctetLength:     u16(8),
		FixedBytesLen:   u16(8),
		LiteralPrefix:   "'",
		LiteralSuffix:   "'",
	}
	Null = collapse(TypeInfo{
		Name:       "null",
		Searchable: odbc.PredBasic,
	})
	Regex = collapse(TypeInfo{
		Name:          "regex",
		Searchable:    odbc.PredBasic,
		CaseSensitive: true,
	})
	DBPointer = collapse(TypeInfo{
		Name:       "dbPointer",
		Searchable: odbc.PredBasic,
	})
	Javascript = collapse(TypeInfo{
		Name:          "javascript",
		Searchable:    odbc.Searchable,
		CaseSensitive: true,
	})
	Symbol = collapse(TypeInfo{
		Name:          "symbol",
		Searchable:    odbc.Searchable,
		CaseSensitive: true,
	})
	JavascriptWithScope = collapse(TypeInfo{
		Name:          "javascriptWithScope",
		Searchable:    odbc.Searchable,
		CaseSensitive: true,
	})
	Int = &TypeInfo{
		Name:            "int",
		sqlTypeStandard: odbc.SQLInteger,
		sqlTypeSimple:   odbc.SQLInteger,
		Searchable:      odbc.PredBasic,
		Scale:           u16(0),
		Precision:       u16(10),
		OctetLength:     u16(4),
		FixedBytesLen:   u16(4),
		NumPrecRadix:    i16(10),
		Unsigned:        b(false),
		AutoUniqueValue: b(false),
	}
	Timestamp = collapse(TypeInfo{
		Name:       "timestamp",
		Searchable: odbc.PredBasic,
	})
	Long = &TypeInfo{
		Name:            "long",
		sqlTypeStandard: odbc.SQLBigInt,
		sqlTypeSimple:   odbc.SQLBigInt,
		Searchable:      odbc.PredBasic,
		Scale:           u16(0),
		Precision:       u16(19),
		OctetLength:     u16(8),
		FixedBytesLen:   u16(8),
		NumPrecRadix:    i16(10),
		Unsigned:        b(false),
		AutoUniqueValue: b(false),
	}
	Decimal = collapse(TypeInfo{
		Name:         "decimal",
		Searchable:   odbc.PredBasic,
		Scale:        u16(34),
		Precision:    u16(34),
		OctetLength:  u16(16),
		NumPrecRadix: i16(10),
		Unsigned:     b(false),
	})
	MinKey = collapse(TypeInfo{
		Name:       "minKey",
		Searchable: odbc.PredBasic,
	})
	MaxKey = collapse(TypeInfo{
		Name:       "maxKey",
		Searchable: odbc.PredBasic,
	})
	// Any describes a field whose schema admits every BSON type.
	Any = collapse(TypeInfo{
		Name:       "bson",
		Searchable: odbc.PredBasic,
	})
)

// listing is the fixed order the type-info cursor iterates: ascending by
// standard SQL type code, name-alphabetical within the unknown group.
var listing = []*TypeInfo{
	String,              // -9
	Bool,                // -7
	Long,                // -5
	BinData,             // -2
	Array,               // 0
	Any,                 // 0
	DBPointer,           // 0
	Decimal,             // 0
	Javascript,          // 0
	JavascriptWithScope, // 0
	MaxKey,              // 0
	MinKey,              // 0
	Null,                // 0
	Object,              // 0
	ObjectID,            // 0
	Symbol,              // 0
	Timestamp,           // 0
	Undefined,           // 0
	Int,                 // 4
	Double,              // 8
	Date,                // 93
}

// Listing returns the ordered type catalog the type-info cursor walks.
func Listing() []*TypeInfo {
	return listing
}

var byName = map[string]*TypeInfo{
	"double":              Double,
	"string":              String,
	"object":              Object,
	"array":               Array,
	"binData":             BinData,
	"undefined":           Undefined,
	"objectId":            ObjectID,
	"bool":                Bool,
	"date":                Date,
	"null":                Null,
	"regex":               Regex,
	"dbPointer":           DBPointer,
	"javascript":          Javascript,
	"symbol":              Symbol,
	"javascriptWithScope": JavascriptWithScope,
	"int":                 Int,
	"timestamp":           Timestamp,
	"long":                Long,
	"decimal":             Decimal,
	"minKey":              MinKey,
	"maxKey":              MaxKey,
	"bson":                Any,
	"any":                 Any,
}

// FromName resolves a JSON-schema bsonType name. Unrecognized names resolve
// to Any rather than failing; the unknown sentinel carries through the SQL
// type code.
func FromName(name string) *TypeInfo {
	if t, ok := byName[name]; ok {
		return t
	}
	return Any
}

// FromBsonType classifies a concrete BSON value type encountered during
// fetch.
func FromBsonType(t bsontype.Type) *TypeInfo {
	switch t {
	case bsontype.Double:
		return Double
	case bsontype.String:
		return String
	case bsontype.EmbeddedDocument:
		return Object
	case bsontype.Array:
		return Array
	case bsontype.Binary:
		return BinData
	case bsontype.Undefined:
		return Undefined
	case bsontype.ObjectID:
		return ObjectID
	case bsontype.Boolean:
		return Bool
	case bsontype.DateTime:
		return Date
	case bsontype.Null:
		return Null
	case bsontype.Regex:
		return Regex
	case bsontype.DBPointer:
		return DBPointer
	case bsontype.JavaScript:
		return Javascript
	case bsontype.Symbol:
		return Symbol
	case bsontype.CodeWithScope:
		return JavascriptWithScope
	case bsontype.Int32:
		return Int
	case bsontype.Timestamp:
		return Timestamp
	case bsontype.Int64:
		return Long
	case bsontype.Decimal128:
		return Decimal
	case bsontype.MinKey:
		return MinKey
	case bsontype.MaxKey:
		return MaxKey
	}
	return Any
}
