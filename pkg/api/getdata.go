package api

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf16"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/handles"
	"github.com/meshql/mongodbc/pkg/odbc"
)

// timestampLayout is the ODBC rendering of datetime values.
const timestampLayout = "2006-01-02 15:04:05.000"

// GetData reads one column of the current row into an application buffer.
// Character and binary targets stream: a value larger than the buffer is
// handed out in successive calls for the same column, and a fully consumed
// value reports NoData.
func (d *Driver) GetData(stmtH handles.Handle, col uint16, targetType odbc.CDataType, buffer []byte, indicator *int64) odbc.SqlReturn {
	return d.guard("SQLGetData", stmtH, func() odbc.SqlReturn {
		stmt, ok := d.Arena.Stmt(stmtH)
		if !ok {
			return odbc.InvalidHandle
		}
		diags := &stmt.Diags

		stmt.Mu.Lock()
		defer stmt.Mu.Unlock()
		if stmt.Cursor == nil {
			return fail(diags, errors.FunctionSequence("SQLGetData"))
		}

		v, err := stmt.Cursor.Value(col)
		if err != nil {
			return fail(diags, err)
		}

		if v.Type == bsontype.Null || v.Type == bsontype.Undefined {
			if indicator == nil {
				return fail(diags, errors.General(fmt.Errorf("null value requires an indicator pointer")))
			}
			*indicator = odbc.NullIndicator
			return odbc.Success
		}

		switch targetType {
		case odbc.CDataChar, odbc.CDataWChar, odbc.CDataDefault, odbc.CDataBinary:
			return d.getVariableData(stmt, col, targetType, v, buffer, indicator, diags)
		default:
			return d.getFixedData(targetType, v, buffer, indicator, diags)
		}
	})
}

// getVariableData handles the streamable target types.
func (d *Driver) getVariableData(stmt *handles.Stmt, col uint16, targetType odbc.CDataType, v bson.RawValue, buffer []byte, indicator *int64, diags *handles.Diagnostics) odbc.SqlReturn {
	var data []byte
	switch targetType {
	case odbc.CDataBinary:
		if _, b, ok := v.BinaryOK(); ok {
			data = b
		} else {
			data = []byte(renderString(v))
		}
	case odbc.CDataWChar:
		units := utf16.Encode([]rune(renderString(v)))
		data = make([]byte, len(units)*2)
		for i, u := range units {
			binary.LittleEndian.PutUint16(data[i*2:], u)
		}
	default:
		data = []byte(renderString(v))
	}

	// Streaming position: a different column resets the offset.
	if stmt.GetDataCol != col {
		stmt.GetDataCol = col
		stmt.GetDataOffset = 0
	}
	remaining := data[min(stmt.GetDataOffset, len(data)):]
	if stmt.GetDataOffset > 0 && len(remaining) == 0 {
		return odbc.NoData
	}

	// Character targets reserve space for the terminator.
	termSize := 0
	switch targetType {
	case odbc.CDataChar, odbc.CDataDefault:
		termSize = 1
	case odbc.CDataWChar:
		termSize = 2
	}

	capacity := len(buffer) - termSize
	if capacity < 0 {
		capacity = 0
	}
	if targetType == odbc.CDataWChar {
		capacity -= capacity % 2
	}

	n := len(remaining)
	truncated := false
	if n > capacity {
		n = capacity
		truncated = true
	}
	copy(buffer, remaining[:n])
	if termSize > 0 && len(buffer) >= termSize {
		for i := 0; i < termSize; i++ {
			buffer[n+i] = 0
		}
	}

	if indicator != nil {
		*indicator = int64(len(remaining))
	}
	stmt.GetDataOffset += n

	if truncated {
		return warn(diags, errors.RightTruncated(len(buffer)))
	}
	return odbc.Success
}

// getFixedData converts to the fixed-width numeric targets.
func (d *Driver) getFixedData(targetType odbc.CDataType, v bson.RawValue, buffer []byte, indicator *int64, diags *handles.Diagnostics) odbc.SqlReturn {
	write := func(size int, fill func([]byte)) odbc.SqlReturn {
		if len(buffer) < size {
			return fail(diags, errors.General(fmt.Errorf("target buffer too small for fixed-width type")))
		}
		fill(buffer)
		if indicator != nil {
			*indicator = int64(size)
		}
		return odbc.Success
	}

	switch targetType {
	case odbc.CDataSLong, odbc.CDataLong:
		i, err := valueAsInt64(v)
		if err != nil {
			return fail(diags, err)
		}
		if i > math.MaxInt32 || i < math.MinInt32 {
			return fail(diags, errors.General(fmt.Errorf("value %d out of range for a 32-bit target", i)))
		}
		return write(4, func(b []byte) { binary.LittleEndian.PutUint32(b, uint32(int32(i))) })
	case odbc.CDataSBigInt:
		i, err := valueAsInt64(v)
		if err != nil {
			return fail(diags, err)
		}
		return write(8, func(b []byte) { binary.LittleEndian.PutUint64(b, uint64(i)) })
	case odbc.CDataDouble, odbc.CDataFloat:
		f, err := valueAsFloat64(v)
		if err != nil {
			return fail(diags, err)
		}
		if targetType == odbc.CDataFloat {
			return write(4, func(b []byte) { binary.LittleEndian.PutUint32(b, math.Float32bits(float32(f))) })
		}
		return write(8, func(b []byte) { binary.LittleEndian.PutUint64(b, math.Float64bits(f)) })
	case odbc.CDataBit:
		t, err := valueAsBool(v)
		if err != nil {
			return fail(diags, err)
		}
		return write(1, func(b []byte) {
			if t {
				b[0] = 1
			} else {
				b[0] = 0
			}
		})
	}
	return fail(diags, errors.NotImplemented(fmt.Sprintf("C data type %d", targetType)))
}

// fillBinding writes the current row's column into a bound buffer.
// Callers hold the statement lock.
func (d *Driver) fillBinding(stmt *handles.Stmt, col uint16, binding handles.Binding, diags *handles.Diagnostics) odbc.SqlReturn {
	v, err := stmt.Cursor.Value(col)
	if err != nil {
		return fail(diags, err)
	}

	if v.Type == bsontype.Null || v.Type == bsontype.Undefined {
		if binding.IndPtr == nil {
			return fail(diags, errors.General(fmt.Errorf("null value in column %d requires a bound indicator", col)))
		}
		*binding.IndPtr = odbc.NullIndicator
		return odbc.Success
	}

	switch binding.TargetType {
	case odbc.CDataChar, odbc.CDataWChar, odbc.CDataDefault, odbc.CDataBinary:
		// Bound character buffers do not stream; reuse the rendering but
		// with a throwaway position.
		scratch := handles.Stmt{Cursor: stmt.Cursor}
		return d.getVariableData(&scratch, col, binding.TargetType, v, binding.Buffer, binding.IndPtr, diags)
	default:
		return d.getFixedData(binding.TargetType, v, binding.Buffer, binding.IndPtr, diags)
	}
}

// renderString is the textual form of any BSON value: strings verbatim,
// scalars in their SQL rendering, and composite values as extended JSON.
func renderString(v bson.RawValue) string {
	switch v.Type {
	case bsontype.String:
		return v.StringValue()
	case bsontype.ObjectID:
		return v.ObjectID().Hex()
	case bsontype.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case bsontype.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case bsontype.Double:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case bsontype.Boolean:
		if v.Boolean() {
			return "1"
		}
		return "0"
	case bsontype.DateTime:
		return time.UnixMilli(v.DateTime()).UTC().Format(timestampLayout)
	case bsontype.Decimal128:
		dec := v.Decimal128()
		return dec.String()
	case bsontype.Symbol:
		return v.Symbol()
	case bsontype.JavaScript:
		return v.JavaScript()
	}
	// Composite and exotic types render as extended JSON.
	return v.String()
}

func valueAsInt64(v bson.RawValue) (int64, error) {
	switch v.Type {
	case bsontype.Int32:
		return int64(v.Int32()), nil
	case bsontype.Int64:
		return v.Int64(), nil
	case bsontype.Double:
		f := v.Double()
		if f != math.Trunc(f) {
			return 0, errors.General(fmt.Errorf("fractional value %v cannot convert to an integer target", f))
		}
		return int64(f), nil
	case bsontype.Boolean:
		if v.Boolean() {
			return 1, nil
		}
		return 0, nil
	case bsontype.String:
		i, err := strconv.ParseInt(v.StringValue(), 10, 64)
		if err != nil {
			return 0, errors.General(fmt.Errorf("string %q is not an integer", v.StringValue()))
		}
		return i, nil
	}
	return 0, errors.General(fmt.Errorf("BSON %v cannot convert to an integer target", v.Type))
}

func valueAsFloat64(v bson.RawValue) (float64, error) {
	switch v.Type {
	case bsontype.Double:
		return v.Double(), nil
	case bsontype.Int32:
		return float64(v.Int32()), nil
	case bsontype.Int64:
		return float64(v.Int64()), nil
	case bsontype.Boolean:
		if v.Boolean() {
			return 1, nil
		}
		return 0, nil
	case bsontype.String:
		f, err := strconv.ParseFloat(v.StringValue(), 64)
		if err != nil {
			return 0, errors.General(fmt.Errorf("string %q is not numeric", v.StringValue()))
		}
		return f, nil
	}
	return 0, errors.General(fmt.Errorf("BSON %v cannot convert to a floating-point target", v.Type))
}

func valueAsBool(v bson.RawValue) (bool, error) {
	switch v.Type {
	case bsontype.Boolean:
		return v.Boolean(), nil
	case bsontype.Int32:
		return v.Int32() != 0, nil
	case bsontype.Int64:
		return v.Int64() != 0, nil
	case bsontype.Double:
		return v.Double() != 0, nil
	}
	return false, errors.General(fmt.Errorf("BSON %v cannot convert to a bit target", v.Type))
}
