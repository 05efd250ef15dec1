// Package odbc defines the call-level-interface vocabulary the driver
// speaks at its boundary: return codes, handle and data type codes,
// attribute identifiers, and the buffer-filling helpers shared by every
// string-returning entry point.
package odbc

// SqlReturn is the status code every boundary function returns.
type SqlReturn int16

const (
	Success         SqlReturn = 0
	SuccessWithInfo SqlReturn = 1
	StillExecuting  SqlReturn = 2
	Error           SqlReturn = -1
	InvalidHandle   SqlReturn = -2
	NeedData        SqlReturn = 99
	NoData          SqlReturn = 100
)

func (r SqlReturn) String() string {
	switch r {
	case Success:
		return "SQL_SUCCESS"
	case SuccessWithInfo:
		return "SQL_SUCCESS_WITH_INFO"
	case StillExecuting:
		return "SQL_STILL_EXECUTING"
	case Error:
		return "SQL_ERROR"
	case InvalidHandle:
		return "SQL_INVALID_HANDLE"
	case NeedData:
		return "SQL_NEED_DATA"
	case NoData:
		return "SQL_NO_DATA"
	}
	return "SQL_UNKNOWN_RETURN"
}

// Succeeded reports whether the code is a success variant.
func (r SqlReturn) Succeeded() bool {
	return r == Success || r == SuccessWithInfo
}

// HandleType identifies the four handle kinds.
type HandleType int16

const (
	HandleEnv  HandleType = 1
	HandleDbc  HandleType = 2
	HandleStmt HandleType = 3
	HandleDesc HandleType = 4
)

func (h HandleType) String() string {
	switch h {
	case HandleEnv:
		return "SQL_HANDLE_ENV"
	case HandleDbc:
		return "SQL_HANDLE_DBC"
	case HandleStmt:
		return "SQL_HANDLE_STMT"
	case HandleDesc:
		return "SQL_HANDLE_DESC"
	}
	return "SQL_HANDLE_UNKNOWN"
}

// SqlDataType is the SQL type code reported in result metadata and the
// type-info listing. SQLUnknownType doubles as the accept-everything
// filter for the type-info listing.
type SqlDataType int16

const (
	SQLUnknownType   SqlDataType = 0
	SQLChar          SqlDataType = 1
	SQLNumeric       SqlDataType = 2
	SQLDecimal       SqlDataType = 3
	SQLInteger       SqlDataType = 4
	SQLSmallInt      SqlDataType = 5
	SQLFloat         SqlDataType = 6
	SQLReal          SqlDataType = 7
	SQLDouble        SqlDataType = 8
	SQLDatetime      SqlDataType = 9
	SQLVarchar       SqlDataType = 12
	SQLTypeDate      SqlDataType = 91
	SQLTypeTime      SqlDataType = 92
	SQLTypeTimestamp SqlDataType = 93
	SQLLongVarchar   SqlDataType = -1
	SQLBinary        SqlDataType = -2
	SQLVarBinary     SqlDataType = -3
	SQLLongVarBinary SqlDataType = -4
	SQLBigInt        SqlDataType = -5
	SQLTinyInt       SqlDataType = -6
	SQLBit           SqlDataType = -7
	SQLWChar         SqlDataType = -8
	SQLWVarchar      SqlDataType = -9
	SQLWLongVarchar  SqlDataType = -10
)

// CDataType is the application buffer type code used by data retrieval.
type CDataType int16

const (
	CDataChar    CDataType = 1
	CDataLong    CDataType = 4
	CDataFloat   CDataType = 7
	CDataDouble  CDataType = 8
	CDataDefault CDataType = 99
	CDataWChar   CDataType = -8
	CDataBit     CDataType = -7
	CDataBinary  CDataType = -2
	CDataSLong   CDataType = -16
	CDataSBigInt CDataType = -25
)

// Nullability is the SQL_DESC_NULLABLE descriptor value.
type Nullability int16

const (
	NoNulls         Nullability = 0
	Nullable        Nullability = 1
	NullableUnknown Nullability = 2
)

// Searchability codes for SQL_DESC_SEARCHABLE and the type-info listing.
const (
	PredNone   int32 = 0
	PredChar   int32 = 1
	PredBasic  int32 = 2
	Searchable int32 = 3
)

// EnvAttr identifies settable environment attributes.
type EnvAttr int32

const (
	AttrODBCVersion       EnvAttr = 200
	AttrConnectionPooling EnvAttr = 201
	AttrCPMatch           EnvAttr = 202
	AttrOutputNTS         EnvAttr = 10001
)

// ODBCVersion is the value of AttrODBCVersion.
type ODBCVersion int32

const (
	OVODBC2   ODBCVersion = 2
	OVODBC3   ODBCVersion = 3
	OVODBC380 ODBCVersion = 380
)

// IsODBC3 reports whether the 3.x SQLSTATE dialect applies.
func (v ODBCVersion) IsODBC3() bool {
	return v == OVODBC3 || v == OVODBC380
}

// ConnAttr identifies settable connection attributes.
type ConnAttr int32

const (
	AttrLoginTimeout      ConnAttr = 103
	AttrCurrentCatalog    ConnAttr = 109
	AttrConnectionTimeout ConnAttr = 113
)

// StmtAttr identifies settable statement attributes.
type StmtAttr int32

const (
	AttrQueryTimeout      StmtAttr = 0
	AttrMaxRows           StmtAttr = 1
	AttrRowBindType       StmtAttr = 5
	AttrRowArraySize      StmtAttr = 27
	AttrRowsFetchedPtr    StmtAttr = 26
	AttrRowStatusPtr      StmtAttr = 25
	AttrAppRowDesc        StmtAttr = 10010
	AttrAppParamDesc      StmtAttr = 10011
	AttrImpRowDesc        StmtAttr = 10012
	AttrImpParamDesc      StmtAttr = 10013
	AttrCursorScrollable  StmtAttr = -1
	AttrCursorSensitivity StmtAttr = -2
)

// FreeStmtOption selects what freeing a statement resets.
type FreeStmtOption uint16

const (
	FreeStmtClose       FreeStmtOption = 0
	FreeStmtDrop        FreeStmtOption = 1
	FreeStmtUnbind      FreeStmtOption = 2
	FreeStmtResetParams FreeStmtOption = 3
)

// DiagField identifies diagnostic fields retrievable per record or per
// header.
type DiagField int16

const (
	DiagReturnCode  DiagField = 1
	DiagNumber      DiagField = 2
	DiagRowCount    DiagField = 3
	DiagSQLState    DiagField = 4
	DiagNative      DiagField = 5
	DiagMessageText DiagField = 6
	DiagRowNumber   DiagField = -1248
)

// RowNumberUnknown is reported when a diagnostic is not row-specific.
const RowNumberUnknown int64 = -2

// ColAttrField identifies column attribute queries.
type ColAttrField uint16

const (
	ColAttrConciseType     ColAttrField = 2
	ColAttrDisplaySize     ColAttrField = 6
	ColAttrUnsigned        ColAttrField = 8
	ColAttrFixedPrecScale  ColAttrField = 9
	ColAttrUpdatable       ColAttrField = 10
	ColAttrAutoUniqueValue ColAttrField = 11
	ColAttrCaseSensitive   ColAttrField = 12
	ColAttrSearchable      ColAttrField = 13
	ColAttrTypeName        ColAttrField = 14
	ColAttrTableName       ColAttrField = 15
	ColAttrOwnerName       ColAttrField = 16
	ColAttrQualifierName   ColAttrField = 17
	ColAttrLabel           ColAttrField = 18
	ColAttrBaseColumnName  ColAttrField = 22
	ColAttrBaseTableName   ColAttrField = 23
	ColAttrLiteralPrefix   ColAttrField = 27
	ColAttrLiteralSuffix   ColAttrField = 28
	ColAttrLocalTypeName   ColAttrField = 29
	ColAttrName            ColAttrField = 1011
	ColAttrNullable        ColAttrField = 1008
	ColAttrOctetLength     ColAttrField = 1013
	ColAttrPrecision       ColAttrField = 1005
	ColAttrScale           ColAttrField = 1006
	ColAttrCount           ColAttrField = 1001
	ColAttrLength          ColAttrField = 1003
	ColAttrType            ColAttrField = 1002
)

// Column updatability codes for ColAttrUpdatable.
const (
	AttrReadOnly int64 = 0
)

// Table-type names reported by the catalog listings.
const (
	TableTypeTable = "TABLE"
	TableTypeView  = "VIEW"
)

// Catalog-function enumeration arguments.
const (
	SQLAllCatalogs   = "%"
	SQLAllSchemas    = "%"
	SQLAllTableTypes = "%"
)
