package odbc

import (
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf []uint16) string {
	t.Helper()
	for i, u := range buf {
		if u == 0 {
			return string(utf16.Decode(buf[:i]))
		}
	}
	t.Fatal("buffer is not NUL-terminated")
	return ""
}

func TestWriteWideStringFits(t *testing.T) {
	buf := make([]uint16, 32)
	var written int16

	ret := WriteWideString("hello", buf, &written)
	assert.Equal(t, Success, ret)
	assert.Equal(t, int16(5), written)
	assert.Equal(t, "hello", decode(t, buf))
}

func TestWriteWideStringTruncates(t *testing.T) {
	// A 58-character message into 15 slots keeps the first 14 characters
	// plus the terminator and reports the truncation.
	msg := strings.Repeat("abcdefgh", 7) + "xy"
	require.Len(t, msg, 58)

	buf := make([]uint16, 15)
	var written int16
	ret := WriteWideString(msg, buf, &written)

	assert.Equal(t, SuccessWithInfo, ret)
	assert.Equal(t, int16(14), written)
	assert.Equal(t, msg[:14], decode(t, buf))
	assert.Equal(t, uint16(0), buf[14])
}

func TestWriteWideStringExactFit(t *testing.T) {
	buf := make([]uint16, 6)
	var written int16
	ret := WriteWideString("hello", buf, &written)

	assert.Equal(t, Success, ret, "message plus terminator exactly fills the buffer")
	assert.Equal(t, int16(5), written)
}

func TestWriteWideStringEmptyBuffer(t *testing.T) {
	var written int16
	ret := WriteWideString("data", nil, &written)
	assert.Equal(t, SuccessWithInfo, ret)
	assert.Equal(t, int16(0), written)

	ret = WriteWideString("", nil, &written)
	assert.Equal(t, Success, ret)
}

func TestWriteWideStringNilWrittenPointer(t *testing.T) {
	buf := make([]uint16, 4)
	assert.Equal(t, SuccessWithInfo, WriteWideString("long message", buf, nil))
	assert.Equal(t, "lon", decode(t, buf))
}

func TestWriteString(t *testing.T) {
	buf := make([]byte, 8)
	var written int64

	ret := WriteString("narrow", buf, &written)
	assert.Equal(t, Success, ret)
	assert.Equal(t, int64(6), written)
	assert.Equal(t, "narrow", string(buf[:written]))
	assert.Equal(t, byte(0), buf[written])

	ret = WriteString("overflowing", buf, &written)
	assert.Equal(t, SuccessWithInfo, ret)
	assert.Equal(t, int64(7), written)
}

func TestWriteSQLState(t *testing.T) {
	buf := make([]uint16, 6)
	assert.Equal(t, Success, WriteSQLState("HY000", buf))
	assert.Equal(t, "HY000", decode(t, buf))

	short := make([]uint16, 5)
	assert.Equal(t, Error, WriteSQLState("HY000", short))
}

func TestWideToString(t *testing.T) {
	src := utf16.Encode([]rune("catalog"))
	src = append(src, 0, 0xFFFF)

	assert.Equal(t, "catalog", WideToString(src, -1), "negative length reads to the terminator")
	assert.Equal(t, "cat", WideToString(src, 3))
	assert.Equal(t, "", WideToString(nil, -1))
}
