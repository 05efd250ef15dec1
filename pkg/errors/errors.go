// Package errors provides the standardized error type the driver reports
// through ODBC diagnostics. Every error kind carries both the ODBC 2.x and
// ODBC 3.x SQLSTATE so rendering a diagnostic record is a pure lookup.
package errors

import (
	"errors"
	"fmt"
)

const vendor = "MongoDB"

// SQLState is a two-dialect SQLSTATE pair. Which code is reported depends
// on the ODBC version the environment was configured for.
type SQLState struct {
	ODBC2 string
	ODBC3 string
}

// ForODBC3 selects the dialect-appropriate code.
func (s SQLState) ForODBC3(odbc3 bool) string {
	if odbc3 {
		return s.ODBC3
	}
	return s.ODBC2
}

// SQLSTATE pairs used by the driver. Both codes are reproduced verbatim
// from the ODBC specification.
var (
	StateGeneralError       = SQLState{"S1000", "HY000"}
	StateFunctionSequence   = SQLState{"S1010", "HY010"}
	StateInvalidCursorState = SQLState{"24000", "24000"}
	StateConnectionNotOpen  = SQLState{"08003", "08003"}
	StateUnableToConnect    = SQLState{"08001", "08001"}
	StateNoDSNOrDriver      = SQLState{"IM007", "IM007"}
	StateOptionChanged      = SQLState{"01S02", "01S02"}
	StateRightTruncated     = SQLState{"01004", "01004"}
	StateInvalidColumn      = SQLState{"07009", "07009"}
	StateTimeoutExpired     = SQLState{"S1T00", "HYT00"}
	StateNotImplemented     = SQLState{"S1C00", "HYC00"}
	StateInvalidAttrValue   = SQLState{"S1009", "HY024"}
)

// Error is the driver's error type. Code classifies the failure, State is
// the SQLSTATE pair rendered into diagnostics, Native is the collaborator's
// native error code when one exists.
type Error struct {
	Code    string
	State   SQLState
	Message string
	Native  int32
	Cause   error
	// Internal marks translate-library failures that are not the user's
	// fault; the message is prefixed accordingly so support can triage.
	Internal bool
}

// Error codes mirroring the taxonomy in the design: usage, configuration,
// collaborator, and not-implemented failures.
const (
	CodeGeneral            = "GENERAL_ERROR"
	CodeFunctionSequence   = "FUNCTION_SEQUENCE_ERROR"
	CodeInvalidCursorState = "INVALID_CURSOR_STATE"
	CodeInvalidColumn      = "INVALID_COLUMN_NUMBER"
	CodeInvalidHandleType  = "INVALID_HANDLE_TYPE"
	CodeStillHasChildren   = "STILL_HAS_CHILDREN"
	CodeInvalidAttrValue   = "INVALID_ATTR_VALUE"
	CodeOptionChanged      = "OPTION_VALUE_CHANGED"
	CodeRightTruncated     = "RIGHT_TRUNCATED"
	CodeConnectionNotOpen  = "CONNECTION_NOT_OPEN"
	CodeUnableToConnect    = "UNABLE_TO_CONNECT"
	CodeNoDSNOrDriver      = "NO_DSN_OR_DRIVER"
	CodeTimeoutExpired     = "TIMEOUT_EXPIRED"
	CodeNotImplemented     = "NOT_IMPLEMENTED"
	CodeUnsupportedCluster = "UNSUPPORTED_CLUSTER"
	CodeTranslateFailed    = "TRANSLATE_FAILED"
	CodeDatabaseError      = "DATABASE_ERROR"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on the error code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// DiagMessage is the vendor-formatted message written to the diagnostics
// ledger.
func (e *Error) DiagMessage() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s][API] %s: %v", vendor, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s][API] %s", vendor, e.Message)
}

func newf(code string, state SQLState, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		State:   state,
		Message: fmt.Sprintf(format, args...),
	}
}

// General wraps an unclassified failure, including recovered panics.
func General(cause error) *Error {
	return &Error{
		Code:    CodeGeneral,
		State:   StateGeneralError,
		Message: "general error",
		Cause:   cause,
	}
}

// Panic converts a recovered panic value into a general error.
func Panic(recovered interface{}) *Error {
	return newf(CodeGeneral, StateGeneralError, "unexpected fault: %v", recovered)
}

// NotImplemented reports a deliberately unsupported operation.
func NotImplemented(fnName string) *Error {
	return newf(CodeNotImplemented, StateNotImplemented, "the feature %s is not implemented", fnName)
}

// FunctionSequence reports a call that is illegal in the handle's current
// state.
func FunctionSequence(fnName string) *Error {
	return newf(CodeFunctionSequence, StateFunctionSequence, "function sequence error in %s", fnName)
}

// InvalidCursorState reports value access before the cursor is positioned.
func InvalidCursorState() *Error {
	return newf(CodeInvalidCursorState, StateInvalidCursorState, "invalid cursor state: cursor not positioned on a row")
}

// ColumnIndexOutOfBounds reports a 1-based column index outside the result
// set metadata.
func ColumnIndexOutOfBounds(index uint16) *Error {
	return newf(CodeInvalidColumn, StateInvalidColumn, "column index %d is out of bounds", index)
}

// InvalidHandleType reports an allocation against the wrong parent kind.
func InvalidHandleType(detail string) *Error {
	return newf(CodeInvalidHandleType, StateGeneralError, "invalid handle type: %s", detail)
}

// StillHasChildren reports a free attempted on a handle with live children.
func StillHasChildren() *Error {
	return newf(CodeStillHasChildren, StateFunctionSequence, "handle still has allocated children")
}

// InvalidAttrValue reports a rejected attribute value.
func InvalidAttrValue(attr string) *Error {
	return newf(CodeInvalidAttrValue, StateInvalidAttrValue, "invalid value for attribute %s", attr)
}

// OptionValueChanged reports an attribute value the driver substituted.
func OptionValueChanged(attr, substituted string) *Error {
	return newf(CodeOptionChanged, StateOptionChanged, "invalid value for attribute %s, changed to %s", attr, substituted)
}

// RightTruncated reports an output string that did not fit the caller's
// buffer.
func RightTruncated(bufferLen int) *Error {
	return newf(CodeRightTruncated, StateRightTruncated, "string data right truncated to %d characters", bufferLen)
}

// ConnectionNotOpen reports an operation that requires a connected handle.
func ConnectionNotOpen() *Error {
	return newf(CodeConnectionNotOpen, StateConnectionNotOpen, "connection not open")
}

// UnableToConnect wraps a connect failure from the database collaborator.
func UnableToConnect(cause error) *Error {
	return &Error{
		Code:    CodeUnableToConnect,
		State:   StateUnableToConnect,
		Message: "unable to connect",
		Cause:   cause,
	}
}

// MissingDriverOrDSN reports a connection string without DRIVER or DSN.
func MissingDriverOrDSN() *Error {
	return newf(CodeNoDSNOrDriver, StateNoDSNOrDriver, "connection string must contain a DRIVER or DSN property")
}

// TimeoutExpired reports an operation that exceeded its timeout.
func TimeoutExpired(cause error) *Error {
	return &Error{
		Code:    CodeTimeoutExpired,
		State:   StateTimeoutExpired,
		Message: "timeout expired",
		Cause:   cause,
	}
}

// UnsupportedCluster reports a cluster edition the driver cannot serve.
func UnsupportedCluster(detail string) *Error {
	return newf(CodeUnsupportedCluster, StateGeneralError, "unsupported cluster configuration: %s", detail)
}

// TranslateFailed wraps a translate-library command failure, preserving the
// library's message and internal/user classification.
func TranslateFailed(command, message string, internal bool) *Error {
	err := newf(CodeTranslateFailed, StateGeneralError, "%s command failed: %s", command, message)
	err.Internal = internal
	if internal {
		err.Message = fmt.Sprintf("internal error in %s command: %s", command, message)
	}
	return err
}

// Database wraps an error surfaced by the MongoDB driver, preserving its
// message and native server code.
func Database(cause error, nativeCode int32) *Error {
	return &Error{
		Code:    CodeDatabaseError,
		State:   StateGeneralError,
		Message: "database error",
		Native:  nativeCode,
		Cause:   cause,
	}
}

// As extracts a driver error from an error chain, wrapping foreign errors
// as general errors so every failure is reportable through diagnostics.
func As(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return General(err)
}

// IsCode checks whether err carries the given driver error code.
func IsCode(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
