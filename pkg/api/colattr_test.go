package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshql/mongodbc/pkg/metadata"
	"github.com/meshql/mongodbc/pkg/odbc"
	"github.com/meshql/mongodbc/pkg/types"
)

func TestColAttributeW(t *testing.T) {
	d := newTestDriver()
	_, _, stmtH := allocStmt(t, d)

	cols := []metadata.Column{
		metadata.NewColumn("db", "foo", "amount", types.Long, odbc.NoNulls, types.ModeStandard),
		metadata.NewColumn("db", "foo", "name", types.String, odbc.Nullable, types.ModeStandard),
	}
	attachQuery(t, d, stmtH, cols)

	var num int64
	buf := make([]uint16, 64)
	var bufLen int16

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 0, odbc.ColAttrCount, nil, nil, &num))
	assert.Equal(t, int64(2), num)

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 1, odbc.ColAttrConciseType, nil, nil, &num))
	assert.Equal(t, int64(odbc.SQLBigInt), num)

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 1, odbc.ColAttrName, buf, &bufLen, nil))
	assert.Equal(t, "amount", odbc.WideToString(buf, int(bufLen)))

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 1, odbc.ColAttrTableName, buf, &bufLen, nil))
	assert.Equal(t, "foo", odbc.WideToString(buf, int(bufLen)))

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 1, odbc.ColAttrQualifierName, buf, &bufLen, nil))
	assert.Equal(t, "db", odbc.WideToString(buf, int(bufLen)))

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 1, odbc.ColAttrTypeName, buf, &bufLen, nil))
	assert.Equal(t, "long", odbc.WideToString(buf, int(bufLen)))

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 1, odbc.ColAttrPrecision, nil, nil, &num))
	assert.Equal(t, int64(19), num)

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 1, odbc.ColAttrScale, nil, nil, &num))
	assert.Equal(t, int64(0), num)

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 1, odbc.ColAttrOctetLength, nil, nil, &num))
	assert.Equal(t, int64(8), num)

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 1, odbc.ColAttrNullable, nil, nil, &num))
	assert.Equal(t, int64(odbc.NoNulls), num)

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 2, odbc.ColAttrNullable, nil, nil, &num))
	assert.Equal(t, int64(odbc.Nullable), num)

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 1, odbc.ColAttrUnsigned, nil, nil, &num))
	assert.Equal(t, int64(0), num)

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 2, odbc.ColAttrCaseSensitive, nil, nil, &num))
	assert.Equal(t, int64(1), num)

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 2, odbc.ColAttrSearchable, nil, nil, &num))
	assert.Equal(t, int64(odbc.Searchable), num)

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 1, odbc.ColAttrUpdatable, nil, nil, &num))
	assert.Equal(t, odbc.AttrReadOnly, num)

	require.Equal(t, odbc.Success, d.ColAttributeW(stmtH, 2, odbc.ColAttrLiteralPrefix, buf, &bufLen, nil))
	assert.Equal(t, "'", odbc.WideToString(buf, int(bufLen)))
}

func TestColAttributeWColumnBounds(t *testing.T) {
	d := newTestDriver()
	_, _, stmtH := allocStmt(t, d)
	attachQuery(t, d, stmtH, queryColumns())

	var num int64
	assert.Equal(t, odbc.Error, d.ColAttributeW(stmtH, 0, odbc.ColAttrConciseType, nil, nil, &num))
	assert.Equal(t, odbc.Error, d.ColAttributeW(stmtH, 3, odbc.ColAttrConciseType, nil, nil, &num))

	diags, _ := d.Arena.Diagnostics(stmtH)
	rec, ok := diags.Record(1)
	require.True(t, ok)
	assert.Equal(t, "07009", rec.State.ODBC3)
}

func TestColAttributeWWithoutResultSet(t *testing.T) {
	d := newTestDriver()
	_, _, stmtH := allocStmt(t, d)

	var num int64
	assert.Equal(t, odbc.Error, d.ColAttributeW(stmtH, 1, odbc.ColAttrConciseType, nil, nil, &num))

	diags, _ := d.Arena.Diagnostics(stmtH)
	rec, ok := diags.Record(1)
	require.True(t, ok)
	assert.Equal(t, "HY010", rec.State.ODBC3)
}

func TestColAttributeWTruncatesStrings(t *testing.T) {
	d := newTestDriver()
	_, _, stmtH := allocStmt(t, d)

	cols := []metadata.Column{
		metadata.NewColumn("db", "foo", "a_rather_long_column_name", types.String, odbc.Nullable, types.ModeStandard),
	}
	attachQuery(t, d, stmtH, cols)

	buf := make([]uint16, 8)
	var bufLen int16
	ret := d.ColAttributeW(stmtH, 1, odbc.ColAttrName, buf, &bufLen, nil)
	assert.Equal(t, odbc.SuccessWithInfo, ret)
	assert.Equal(t, int16(7), bufLen)
	assert.Equal(t, "a_rathe", odbc.WideToString(buf, -1))

	diags, _ := d.Arena.Diagnostics(stmtH)
	rec, ok := diags.Record(1)
	require.True(t, ok)
	assert.Equal(t, "01004", rec.State.ODBC3)
}

func TestDescribeColW(t *testing.T) {
	d := newTestDriver()
	_, _, stmtH := allocStmt(t, d)

	cols := []metadata.Column{
		metadata.NewColumn("db", "foo", "when", types.Date, odbc.Nullable, types.ModeStandard),
	}
	attachQuery(t, d, stmtH, cols)

	nameBuf := make([]uint16, 32)
	var nameLen int16
	var dataType odbc.SqlDataType
	var size uint64
	var digits int16
	var nullable odbc.Nullability

	require.Equal(t, odbc.Success, d.DescribeColW(stmtH, 1, nameBuf, &nameLen, &dataType, &size, &digits, &nullable))
	assert.Equal(t, "when", odbc.WideToString(nameBuf, int(nameLen)))
	assert.Equal(t, odbc.SQLTypeTimestamp, dataType)
	assert.Equal(t, uint64(24), size)
	assert.Equal(t, int16(3), digits)
	assert.Equal(t, odbc.Nullable, nullable)

	assert.Equal(t, odbc.Error, d.DescribeColW(stmtH, 2, nameBuf, &nameLen, &dataType, &size, &digits, &nullable))
}
