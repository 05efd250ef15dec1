package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLStateDialectSelection(t *testing.T) {
	tests := []struct {
		name  string
		state SQLState
		odbc2 string
		odbc3 string
	}{
		{"general error", StateGeneralError, "S1000", "HY000"},
		{"function sequence", StateFunctionSequence, "S1010", "HY010"},
		{"invalid cursor state", StateInvalidCursorState, "24000", "24000"},
		{"connection not open", StateConnectionNotOpen, "08003", "08003"},
		{"unable to connect", StateUnableToConnect, "08001", "08001"},
		{"no dsn or driver", StateNoDSNOrDriver, "IM007", "IM007"},
		{"option changed", StateOptionChanged, "01S02", "01S02"},
		{"right truncated", StateRightTruncated, "01004", "01004"},
		{"invalid column", StateInvalidColumn, "07009", "07009"},
		{"timeout expired", StateTimeoutExpired, "S1T00", "HYT00"},
		{"not implemented", StateNotImplemented, "S1C00", "HYC00"},
		{"invalid attr value", StateInvalidAttrValue, "S1009", "HY024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.odbc2, tt.state.ForODBC3(false))
			assert.Equal(t, tt.odbc3, tt.state.ForODBC3(true))
		})
	}
}

func TestDiagMessageFormat(t *testing.T) {
	err := NotImplemented("SQLBrowseConnect")
	assert.Equal(t, "[MongoDB][API] the feature SQLBrowseConnect is not implemented", err.DiagMessage())

	wrapped := UnableToConnect(fmt.Errorf("dial tcp: connection refused"))
	assert.Equal(t, "[MongoDB][API] unable to connect: dial tcp: connection refused", wrapped.DiagMessage())
}

func TestErrorWrapping(t *testing.T) {
	cause := fmt.Errorf("server selection timeout")
	err := Database(cause, 13)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, int32(13), err.Native)

	var de *Error
	require.ErrorAs(t, fmt.Errorf("fetch failed: %w", err), &de)
	assert.Equal(t, CodeDatabaseError, de.Code)
}

func TestAsWrapsForeignErrors(t *testing.T) {
	de := As(errors.New("something unexpected"))
	require.NotNil(t, de)
	assert.Equal(t, CodeGeneral, de.Code)
	assert.Equal(t, StateGeneralError, de.State)

	original := InvalidCursorState()
	assert.Same(t, original, As(fmt.Errorf("wrapped: %w", original)))
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", StillHasChildren())
	assert.True(t, IsCode(err, CodeStillHasChildren))
	assert.False(t, IsCode(err, CodeGeneral))
	assert.False(t, IsCode(errors.New("plain"), CodeGeneral))
}

func TestTranslateFailedClassification(t *testing.T) {
	user := TranslateFailed("translate", "unknown collection 'foo'", false)
	assert.False(t, user.Internal)
	assert.Contains(t, user.Message, "translate command failed")

	internal := TranslateFailed("getNamespaces", "panic in visitor", true)
	assert.True(t, internal.Internal)
	assert.Contains(t, internal.Message, "internal error in getNamespaces command")
}

func TestOptionValueChangedMessage(t *testing.T) {
	err := OptionValueChanged("SQL_ATTR_ROW_ARRAY_SIZE", "1")
	assert.Equal(t, StateOptionChanged, err.State)
	assert.Equal(t, "invalid value for attribute SQL_ATTR_ROW_ARRAY_SIZE, changed to 1", err.Message)
}
