package cursor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/metadata"
	"github.com/meshql/mongodbc/pkg/odbc"
	"github.com/meshql/mongodbc/pkg/pattern"
	"github.com/meshql/mongodbc/pkg/types"
)

func mustString(t *testing.T, v bson.RawValue) string {
	t.Helper()
	s, ok := v.StringValueOK()
	require.True(t, ok, "expected string value, got %v", v.Type)
	return s
}

func TestPositioningInvariants(t *testing.T) {
	c := TableTypes()
	ctx := context.Background()

	// Value before the first Next is an invalid cursor state.
	_, err := c.Value(1)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidCursorState))

	ok, warnings, err := c.Next(ctx)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.True(t, ok)

	// Column zero and out-of-range columns are rejected.
	_, err = c.Value(0)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidColumn))
	_, err = c.Value(6)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidColumn))

	// After exhaustion the cursor is unpositioned again.
	for ok {
		ok, _, err = c.Next(ctx)
		require.NoError(t, err)
	}
	_, err = c.Value(1)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidCursorState))
}

func TestTableTypesListing(t *testing.T) {
	c := TableTypes()
	ctx := context.Background()

	var seen []string
	for {
		ok, _, err := c.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		cat, err := c.Value(1)
		require.NoError(t, err)
		assert.Equal(t, "null", cat.Type.String(), "only TABLE_TYPE is populated")

		tt, err := c.Value(4)
		require.NoError(t, err)
		seen = append(seen, mustString(t, tt))
	}
	assert.Equal(t, []string{"TABLE", "VIEW"}, seen)
}

func TestDatabasesListing(t *testing.T) {
	c := Databases([]string{"zoo", "admin", "sales"}, pattern.Literal(""))
	ctx := context.Background()

	var names []string
	for {
		ok, _, err := c.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		v, err := c.Value(1)
		require.NoError(t, err)
		names = append(names, mustString(t, v))
	}
	assert.Equal(t, []string{"admin", "sales", "zoo"}, names, "rows sort by database name")
}

func TestDatabasesFilter(t *testing.T) {
	m, err := pattern.Compile("s%")
	require.NoError(t, err)
	c := Databases([]string{"sales", "admin", "staging"}, m)

	var names []string
	ctx := context.Background()
	for {
		ok, _, err := c.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		v, _ := c.Value(1)
		names = append(names, mustString(t, v))
	}
	assert.Equal(t, []string{"sales", "staging"}, names)
}

func TestTypeInfoScanContinuesPastMismatch(t *testing.T) {
	// SQL_INTEGER sits in the middle of the catalog; the scan must skip
	// the preceding entries and still find it.
	c := TypeInfo(odbc.SQLInteger, types.ModeStandard)
	ctx := context.Background()

	ok, _, err := c.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	name, err := c.Value(1)
	require.NoError(t, err)
	assert.Equal(t, "int", mustString(t, name))

	ok, _, err = c.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "exactly one entry matches SQL_INTEGER")
}

func TestTypeInfoUnknownFilterAcceptsAll(t *testing.T) {
	c := TypeInfo(odbc.SQLUnknownType, types.ModeStandard)
	ctx := context.Background()

	count := 0
	for {
		ok, _, err := c.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 21, count)
	assert.Len(t, c.Metadata(), 19)
}

func TestTypeInfoLongMetadata(t *testing.T) {
	c := TypeInfo(odbc.SQLBigInt, types.ModeStandard)
	ctx := context.Background()

	ok, _, err := c.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	name, _ := c.Value(1)
	assert.Equal(t, "long", mustString(t, name))

	dataType, _ := c.Value(2)
	i, ok2 := dataType.Int32OK()
	require.True(t, ok2)
	assert.Equal(t, int32(odbc.SQLBigInt), i)

	size, _ := c.Value(3)
	i, _ = size.Int32OK()
	assert.Equal(t, int32(19), i)
}

func TestTablesListing(t *testing.T) {
	listings := map[string][]CollectionSpec{
		"sales": {{Name: "orders", Type: "collection"}, {Name: "daily_totals", Type: "view"}},
		"crm":   {{Name: "contacts", Type: "collection"}},
	}
	list := func(_ context.Context, db string) ([]CollectionSpec, error) {
		return listings[db], nil
	}

	c := NewTables([]string{"sales", "crm"}, list, pattern.Literal(""), "")
	ctx := context.Background()

	type row struct{ db, name, typ string }
	var rows []row
	for {
		ok, _, err := c.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		db, _ := c.Value(1)
		name, _ := c.Value(3)
		typ, _ := c.Value(4)
		rows = append(rows, row{mustString(t, db), mustString(t, name), mustString(t, typ)})
	}

	assert.Equal(t, []row{
		{"crm", "contacts", "TABLE"},
		{"sales", "orders", "TABLE"},
		{"sales", "daily_totals", "VIEW"},
	}, rows)
}

func TestTablesTypeFilter(t *testing.T) {
	list := func(context.Context, string) ([]CollectionSpec, error) {
		return []CollectionSpec{
			{Name: "orders", Type: "collection"},
			{Name: "daily_totals", Type: "view"},
		}, nil
	}

	c := NewTables([]string{"sales"}, list, pattern.Literal(""), "'VIEW'")
	ctx := context.Background()

	ok, _, err := c.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	name, _ := c.Value(3)
	assert.Equal(t, "daily_totals", mustString(t, name))

	ok, _, err = c.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTablesWarnsOnListFailure(t *testing.T) {
	list := func(_ context.Context, db string) ([]CollectionSpec, error) {
		if db == "locked" {
			return nil, fmt.Errorf("not authorized on locked")
		}
		return []CollectionSpec{{Name: "c1", Type: "collection"}}, nil
	}

	c := NewTables([]string{"locked", "open"}, list, pattern.Literal(""), "")
	ctx := context.Background()

	ok, warnings, err := c.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok, "failure in one database does not abort the listing")
	require.Len(t, warnings, 1)
	assert.Equal(t, errors.CodeGeneral, warnings[0].Code)

	db, _ := c.Value(1)
	assert.Equal(t, "open", mustString(t, db))
}

func TestEmptyCursor(t *testing.T) {
	c := Empty(metadata.PrimaryKeysColumns())
	ctx := context.Background()

	assert.Len(t, c.Metadata(), 6)
	ok, _, err := c.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Value(1)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidCursorState))
}
