package cursor

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/metadata"
	"github.com/meshql/mongodbc/pkg/odbc"
	"github.com/meshql/mongodbc/pkg/pattern"
	"github.com/meshql/mongodbc/pkg/types"
)

// TableTypes is the static listing of table types the driver supports:
// one row per type, only the TABLE_TYPE column populated.
func TableTypes() Cursor {
	rows := [][]bson.RawValue{}
	for _, tt := range []string{odbc.TableTypeTable, odbc.TableTypeView} {
		rows = append(rows, []bson.RawValue{
			nullValue(),
			nullValue(),
			nullValue(),
			stringValue(tt),
			nullValue(),
		})
	}
	return newStatic(metadata.TablesColumns(), rows)
}

// Databases lists database names as catalog rows: TABLE_CAT populated,
// every other column null.
func Databases(names []string, matcher *pattern.Matcher) Cursor {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	rows := [][]bson.RawValue{}
	for _, name := range sorted {
		if !matcher.Matches(name) {
			continue
		}
		rows = append(rows, []bson.RawValue{
			stringValue(name),
			nullValue(),
			nullValue(),
			nullValue(),
			nullValue(),
		})
	}
	return newStatic(metadata.TablesColumns(), rows)
}

// TypeInfo lists the type catalog, optionally filtered to one SQL type
// code. The scan continues past non-matching entries rather than stopping
// at the first mismatch; the unknown-type filter accepts every entry.
func TypeInfo(filter odbc.SqlDataType, mode types.Mode) Cursor {
	rows := [][]bson.RawValue{}
	for _, ti := range types.Listing() {
		sqlType := ti.SQLType(mode)
		if filter != odbc.SQLUnknownType && sqlType != filter {
			continue
		}
		rows = append(rows, typeInfoRow(ti, sqlType))
	}
	return newStatic(metadata.TypeInfoColumns(), rows)
}

func typeInfoRow(ti *types.TypeInfo, sqlType odbc.SqlDataType) []bson.RawValue {
	optU16 := func(v *uint16) bson.RawValue {
		if v == nil {
			return nullValue()
		}
		return int32Value(int32(*v))
	}
	optI16 := func(v *int16) bson.RawValue {
		if v == nil {
			return nullValue()
		}
		return int32Value(int32(*v))
	}
	optBool := func(v *bool) bson.RawValue {
		if v == nil {
			return nullValue()
		}
		return boolAsInt32(*v)
	}
	optStr := func(s string) bson.RawValue {
		if s == "" {
			return nullValue()
		}
		return stringValue(s)
	}
	return []bson.RawValue{
		stringValue(ti.Name),          // TYPE_NAME
		int32Value(int32(sqlType)),    // DATA_TYPE
		optU16(ti.Precision),          // COLUMN_SIZE
		optStr(ti.LiteralPrefix),      // LITERAL_PREFIX
		optStr(ti.LiteralSuffix),      // LITERAL_SUFFIX
		nullValue(),                   // CREATE_PARAMS
		int32Value(int32(odbc.Nullable)), // NULLABLE
		boolAsInt32(ti.CaseSensitive), // CASE_SENSITIVE
		int32Value(ti.Searchable),     // SEARCHABLE
		optBool(ti.Unsigned),          // UNSIGNED_ATTRIBUTE
		boolAsInt32(ti.FixedPrecScale), // FIXED_PREC_SCALE
		optBool(ti.AutoUniqueValue),   // AUTO_UNIQUE_VALUE
		stringValue(ti.Name),          // LOCAL_TYPE_NAME
		optU16(ti.Scale),              // MINIMUM_SCALE
		optU16(ti.Scale),              // MAXIMUM_SCALE
		int32Value(int32(sqlType)),    // SQL_DATA_TYPE
		nullValue(),                   // SQL_DATETIME_SUB
		optI16(ti.NumPrecRadix),       // NUM_PREC_RADIX
		nullValue(),                   // INTERVAL_PRECISION
	}
}

// CollectionSpec is one entry of a database's collection listing.
type CollectionSpec struct {
	Name string
	Type string // "collection", "view", or "timeseries"
}

// ListCollectionsFunc fetches one database's collection specs. Databases
// are visited lazily so a listing over many databases does not front-load
// every round trip.
type ListCollectionsFunc func(ctx context.Context, db string) ([]CollectionSpec, error)

// Tables iterates collections across databases as table rows. Name
// filtering and table-type filtering happen client-side; databases whose
// listing fails contribute a warning and are skipped rather than aborting
// the whole listing.
type Tables struct {
	position
	meta      []metadata.Column
	databases []string
	list      ListCollectionsFunc
	nameMatch *pattern.Matcher
	typeSet   map[string]bool // accepted TABLE_TYPE values, nil = all

	dbIdx   int
	pending []CollectionSpec
	current struct {
		db   string
		spec CollectionSpec
	}
}

// NewTables builds a table listing over the given databases. tableTypes is
// the caller's comma-separated TABLE_TYPE filter; empty accepts all.
func NewTables(databases []string, list ListCollectionsFunc, nameMatch *pattern.Matcher, tableTypes string) *Tables {
	sorted := append([]string(nil), databases...)
	sort.Strings(sorted)

	var typeSet map[string]bool
	if tableTypes != "" && tableTypes != odbc.SQLAllTableTypes {
		typeSet = map[string]bool{}
		for _, t := range strings.Split(tableTypes, ",") {
			t = strings.ToUpper(strings.Trim(strings.TrimSpace(t), "'"))
			if t == odbc.SQLAllTableTypes {
				typeSet = nil
				break
			}
			typeSet[t] = true
		}
	}

	return &Tables{
		meta:      metadata.TablesColumns(),
		databases: sorted,
		list:      list,
		nameMatch: nameMatch,
		typeSet:   typeSet,
	}
}

func tableTypeOf(spec CollectionSpec) string {
	if spec.Type == "view" {
		return odbc.TableTypeView
	}
	return odbc.TableTypeTable
}

func (t *Tables) Next(ctx context.Context) (bool, []*errors.Error, error) {
	t.started = true
	var warnings []*errors.Error

	for {
		for len(t.pending) > 0 {
			spec := t.pending[0]
			t.pending = t.pending[1:]
			if !t.nameMatch.Matches(spec.Name) {
				continue
			}
			if t.typeSet != nil && !t.typeSet[tableTypeOf(spec)] {
				continue
			}
			t.current.spec = spec
			return true, warnings, nil
		}

		if t.dbIdx >= len(t.databases) {
			t.done = true
			return false, warnings, nil
		}

		db := t.databases[t.dbIdx]
		t.dbIdx++
		specs, err := t.list(ctx, db)
		if err != nil {
			warnings = append(warnings, errors.As(err))
			continue
		}
		t.current.db = db
		t.pending = specs
	}
}

func (t *Tables) Value(col uint16) (bson.RawValue, error) {
	if err := t.check(col, len(t.meta)); err != nil {
		return bson.RawValue{}, err
	}
	switch col {
	case 1:
		return stringValue(t.current.db), nil
	case 3:
		return stringValue(t.current.spec.Name), nil
	case 4:
		return stringValue(tableTypeOf(t.current.spec)), nil
	}
	return nullValue(), nil
}

func (t *Tables) Metadata() []metadata.Column { return t.meta }

func (t *Tables) Close(context.Context) error { return nil }
