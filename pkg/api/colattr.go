package api

import (
	"fmt"

	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/handles"
	"github.com/meshql/mongodbc/pkg/odbc"
)

// ColAttributeW answers one column descriptor field. String fields render
// into charBuf with truncation semantics; numeric fields land in numOut.
func (d *Driver) ColAttributeW(stmtH handles.Handle, col uint16, field odbc.ColAttrField, charBuf []uint16, strLen *int16, numOut *int64) odbc.SqlReturn {
	return d.guard("SQLColAttributeW", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags

		stmt.Mu.RLock()
		defer stmt.Mu.RUnlock()
		if stmt.Cursor == nil {
			return fail(diags, errors.FunctionSequence("SQLColAttributeW"))
		}
		cols := stmt.Cursor.Metadata()

		if field == odbc.ColAttrCount {
			if numOut == nil {
				return fail(diags, errors.General(fmt.Errorf("null numeric attribute pointer")))
			}
			*numOut = int64(len(cols))
			return odbc.Success
		}
		if col == 0 || int(col) > len(cols) {
			return fail(diags, errors.ColumnIndexOutOfBounds(col))
		}
		c := cols[col-1]

		setNum := func(v int64) odbc.SqlReturn {
			if numOut == nil {
				return fail(diags, errors.General(fmt.Errorf("null numeric attribute pointer")))
			}
			*numOut = v
			return odbc.Success
		}
		setBool := func(v bool) odbc.SqlReturn {
			if v {
				return setNum(1)
			}
			return setNum(0)
		}
		setStr := func(s string) odbc.SqlReturn {
			ret := odbc.WriteWideString(s, charBuf, strLen)
			if ret == odbc.SuccessWithInfo {
				return warn(diags, errors.RightTruncated(len(charBuf)))
			}
			return ret
		}

		switch field {
		case odbc.ColAttrConciseType, odbc.ColAttrType:
			return setNum(int64(c.SQLType))
		case odbc.ColAttrNullable:
			return setNum(int64(c.Nullability))
		case odbc.ColAttrName, odbc.ColAttrBaseColumnName:
			return setStr(c.Name)
		case odbc.ColAttrLabel:
			return setStr(c.Label)
		case odbc.ColAttrTableName, odbc.ColAttrBaseTableName:
			return setStr(c.Table)
		case odbc.ColAttrQualifierName:
			return setStr(c.Catalog)
		case odbc.ColAttrOwnerName:
			// No schema level.
			return setStr("")
		case odbc.ColAttrTypeName, odbc.ColAttrLocalTypeName:
			return setStr(c.TypeName())
		case odbc.ColAttrLiteralPrefix:
			return setStr(c.LiteralPrefix())
		case odbc.ColAttrLiteralSuffix:
			return setStr(c.LiteralSuffix())
		case odbc.ColAttrCaseSensitive:
			return setBool(c.CaseSensitive())
		case odbc.ColAttrSearchable:
			return setNum(int64(c.Searchable()))
		case odbc.ColAttrUnsigned:
			return setBool(c.Unsigned())
		case odbc.ColAttrFixedPrecScale:
			return setBool(c.FixedPrecScale())
		case odbc.ColAttrAutoUniqueValue:
			return setBool(c.AutoUnique())
		case odbc.ColAttrUpdatable:
			return setNum(odbc.AttrReadOnly)
		case odbc.ColAttrDisplaySize:
			return setNum(c.DisplaySize())
		case odbc.ColAttrLength:
			return setNum(c.Length())
		case odbc.ColAttrOctetLength:
			return setNum(c.OctetLength())
		case odbc.ColAttrPrecision:
			return setNum(c.Precision())
		case odbc.ColAttrScale:
			return setNum(c.Scale())
		}
		return fail(diags, errors.NotImplemented(fmt.Sprintf("column attribute %d", field)))
	})
}

// DescribeColW is the aggregate single-call describe: name, type,
// column size, decimal digits, nullability.
func (d *Driver) DescribeColW(stmtH handles.Handle, col uint16, nameBuf []uint16, nameLen *int16, dataType *odbc.SqlDataType, columnSize *uint64, decimalDigits *int16, nullable *odbc.Nullability) odbc.SqlReturn {
	return d.guard("SQLDescribeColW", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags

		stmt.Mu.RLock()
		defer stmt.Mu.RUnlock()
		if stmt.Cursor == nil {
			return fail(diags, errors.FunctionSequence("SQLDescribeColW"))
		}
		cols := stmt.Cursor.Metadata()
		if col == 0 || int(col) > len(cols) {
			return fail(diags, errors.ColumnIndexOutOfBounds(col))
		}
		c := cols[col-1]

		if dataType != nil {
			*dataType = c.SQLType
		}
		if columnSize != nil {
			*columnSize = uint64(c.Precision())
		}
		if decimalDigits != nil {
			*decimalDigits = int16(c.Scale())
		}
		if nullable != nil {
			*nullable = c.Nullability
		}

		ret := odbc.WriteWideString(c.Name, nameBuf, nameLen)
		if ret == odbc.SuccessWithInfo {
			return warn(diags, errors.RightTruncated(len(nameBuf)))
		}
		return ret
	})
}
