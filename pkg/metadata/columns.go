package metadata

import (
	"github.com/meshql/mongodbc/pkg/odbc"
	"github.com/meshql/mongodbc/pkg/types"
)

// Column describes one column of a result set: the identity ODBC
// descriptor fields plus the type catalog entry the value metadata derives
// from.
type Column struct {
	Catalog     string
	Table       string
	Name        string
	Label       string
	Type        *types.TypeInfo
	SQLType     odbc.SqlDataType
	Nullability odbc.Nullability
}

// NewColumn resolves the mode-specific SQL type code at construction so
// the column answers attribute queries without re-consulting the mode.
func NewColumn(catalog, table, name string, ti *types.TypeInfo, nullability odbc.Nullability, mode types.Mode) Column {
	return Column{
		Catalog:     catalog,
		Table:       table,
		Name:        name,
		Label:       name,
		Type:        ti,
		SQLType:     ti.SQLType(mode),
		Nullability: nullability,
	}
}

// TypeName is the source-level type name reported for the column.
func (c Column) TypeName() string { return c.Type.Name }

// CaseSensitive reports whether comparisons of the column's values honor
// case.
func (c Column) CaseSensitive() bool { return c.Type.CaseSensitive }

// Searchable is the column's predicate support code.
func (c Column) Searchable() int32 { return c.Type.Searchable }

// Unsigned reports whether the type is unsigned; non-numeric types report
// true per the ODBC convention for SQL_DESC_UNSIGNED.
func (c Column) Unsigned() bool {
	if c.Type.Unsigned != nil {
		return *c.Type.Unsigned
	}
	return true
}

// FixedPrecScale reports SQL_DESC_FIXED_PREC_SCALE.
func (c Column) FixedPrecScale() bool { return c.Type.FixedPrecScale }

// AutoUnique reports SQL_DESC_AUTO_UNIQUE_VALUE; only numeric types carry
// a defined value and none of them auto-increment.
func (c Column) AutoUnique() bool {
	if c.Type.AutoUniqueValue != nil {
		return *c.Type.AutoUniqueValue
	}
	return false
}

// Precision is SQL_DESC_PRECISION; 0 when the type has no fixed precision.
func (c Column) Precision() int64 {
	if c.Type.Precision != nil {
		return int64(*c.Type.Precision)
	}
	return 0
}

// Scale is SQL_DESC_SCALE; 0 when the type has no fixed scale.
func (c Column) Scale() int64 {
	if c.Type.Scale != nil {
		return int64(*c.Type.Scale)
	}
	return 0
}

// Length is SQL_DESC_LENGTH; 0 means variable or unknown.
func (c Column) Length() int64 { return c.Precision() }

// OctetLength is SQL_DESC_OCTET_LENGTH; 0 means variable or unknown.
func (c Column) OctetLength() int64 {
	if c.Type.OctetLength != nil {
		return int64(*c.Type.OctetLength)
	}
	return 0
}

// DisplaySize is SQL_DESC_DISPLAY_SIZE; 0 means unbounded.
func (c Column) DisplaySize() int64 { return c.Precision() }

// LiteralPrefix and LiteralSuffix are the quoting tokens for literals of
// the column's type.
func (c Column) LiteralPrefix() string { return c.Type.LiteralPrefix }
func (c Column) LiteralSuffix() string { return c.Type.LiteralSuffix }

func staticColumn(name string, ti *types.TypeInfo, nullability odbc.Nullability) Column {
	return NewColumn("", "", name, ti, nullability, types.ModeStandard)
}

// TablesColumns is the five-column shape shared by the table, database,
// and table-type listings.
func TablesColumns() []Column {
	return []Column{
		staticColumn("TABLE_CAT", types.String, odbc.Nullable),
		staticColumn("TABLE_SCHEM", types.String, odbc.Nullable),
		staticColumn("TABLE_NAME", types.String, odbc.NoNulls),
		staticColumn("TABLE_TYPE", types.String, odbc.NoNulls),
		staticColumn("REMARKS", types.String, odbc.Nullable),
	}
}

// TypeInfoColumns is the nineteen-column shape of the type-info listing.
func TypeInfoColumns() []Column {
	return []Column{
		staticColumn("TYPE_NAME", types.String, odbc.NoNulls),
		staticColumn("DATA_TYPE", types.Int, odbc.NoNulls),
		staticColumn("COLUMN_SIZE", types.Int, odbc.Nullable),
		staticColumn("LITERAL_PREFIX", types.String, odbc.Nullable),
		staticColumn("LITERAL_SUFFIX", types.String, odbc.Nullable),
		staticColumn("CREATE_PARAMS", types.String, odbc.Nullable),
		staticColumn("NULLABLE", types.Int, odbc.NoNulls),
		staticColumn("CASE_SENSITIVE", types.Int, odbc.NoNulls),
		staticColumn("SEARCHABLE", types.Int, odbc.NoNulls),
		staticColumn("UNSIGNED_ATTRIBUTE", types.Int, odbc.Nullable),
		staticColumn("FIXED_PREC_SCALE", types.Int, odbc.NoNulls),
		staticColumn("AUTO_UNIQUE_VALUE", types.Int, odbc.Nullable),
		staticColumn("LOCAL_TYPE_NAME", types.String, odbc.Nullable),
		staticColumn("MINIMUM_SCALE", types.Int, odbc.Nullable),
		staticColumn("MAXIMUM_SCALE", types.Int, odbc.Nullable),
		staticColumn("SQL_DATA_TYPE", types.Int, odbc.NoNulls),
		staticColumn("SQL_DATETIME_SUB", types.Int, odbc.Nullable),
		staticColumn("NUM_PREC_RADIX", types.Int, odbc.Nullable),
		staticColumn("INTERVAL_PRECISION", types.Int, odbc.Nullable),
	}
}

// PrimaryKeysColumns is the shape of the primary-key listing, which this
// driver always reports empty.
func PrimaryKeysColumns() []Column {
	return []Column{
		staticColumn("TABLE_CAT", types.String, odbc.Nullable),
		staticColumn("TABLE_SCHEM", types.String, odbc.Nullable),
		staticColumn("TABLE_NAME", types.String, odbc.NoNulls),
		staticColumn("COLUMN_NAME", types.String, odbc.NoNulls),
		staticColumn("KEY_SEQ", types.Int, odbc.NoNulls),
		staticColumn("PK_NAME", types.String, odbc.Nullable),
	}
}

// ForeignKeysColumns is the shape of the foreign-key listing, also always
// empty.
func ForeignKeysColumns() []Column {
	return []Column{
		staticColumn("PKTABLE_CAT", types.String, odbc.Nullable),
		staticColumn("PKTABLE_SCHEM", types.String, odbc.Nullable),
		staticColumn("PKTABLE_NAME", types.String, odbc.NoNulls),
		staticColumn("PKCOLUMN_NAME", types.String, odbc.NoNulls),
		staticColumn("FKTABLE_CAT", types.String, odbc.Nullable),
		staticColumn("FKTABLE_SCHEM", types.String, odbc.Nullable),
		staticColumn("FKTABLE_NAME", types.String, odbc.NoNulls),
		staticColumn("FKCOLUMN_NAME", types.String, odbc.NoNulls),
		staticColumn("KEY_SEQ", types.Int, odbc.NoNulls),
		staticColumn("UPDATE_RULE", types.Int, odbc.Nullable),
		staticColumn("DELETE_RULE", types.Int, odbc.Nullable),
		staticColumn("FK_NAME", types.String, odbc.Nullable),
		staticColumn("PK_NAME", types.String, odbc.Nullable),
		staticColumn("DEFERRABILITY", types.Int, odbc.Nullable),
	}
}
