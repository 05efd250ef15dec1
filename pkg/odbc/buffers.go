package odbc

import "unicode/utf16"

// Length indicator sentinels written to application indicator buffers.
const (
	NullIndicator int64 = -1
	NoTotal       int64 = -4
)

// WriteWideString renders msg into a caller-supplied UTF-16 buffer. When
// the message does not fit, it is truncated to capacity minus one and
// SuccessWithInfo is returned; the buffer always ends with a NUL
// terminator when it has any capacity at all. written, when non-nil,
// receives the number of characters written excluding the terminator.
func WriteWideString(msg string, dst []uint16, written *int16) SqlReturn {
	encoded := utf16.Encode([]rune(msg))
	if len(dst) == 0 {
		if written != nil {
			*written = 0
		}
		if len(encoded) > 0 {
			return SuccessWithInfo
		}
		return Success
	}

	n := len(encoded)
	truncated := false
	if n > len(dst)-1 {
		n = len(dst) - 1
		truncated = true
	}
	copy(dst, encoded[:n])
	dst[n] = 0

	if written != nil {
		*written = int16(n)
	}
	if truncated {
		return SuccessWithInfo
	}
	return Success
}

// WriteString is the narrow-character twin of WriteWideString.
func WriteString(msg string, dst []byte, written *int64) SqlReturn {
	if len(dst) == 0 {
		if written != nil {
			*written = 0
		}
		if len(msg) > 0 {
			return SuccessWithInfo
		}
		return Success
	}

	n := len(msg)
	truncated := false
	if n > len(dst)-1 {
		n = len(dst) - 1
		truncated = true
	}
	copy(dst, msg[:n])
	dst[n] = 0

	if written != nil {
		*written = int64(n)
	}
	if truncated {
		return SuccessWithInfo
	}
	return Success
}

// WriteSQLState writes a five-character SQLSTATE plus terminator. The
// destination must hold at least six code units; anything smaller cannot
// carry a state and is left untouched.
func WriteSQLState(state string, dst []uint16) SqlReturn {
	if len(dst) < 6 {
		return Error
	}
	return WriteWideString(state, dst[:6], nil)
}

// WideToString decodes a UTF-16 input buffer. A negative length means the
// buffer is NUL-terminated.
func WideToString(src []uint16, length int) string {
	if length < 0 {
		length = 0
		for length < len(src) && src[length] != 0 {
			length++
		}
	}
	if length > len(src) {
		length = len(src)
	}
	return string(utf16.Decode(src[:length]))
}
