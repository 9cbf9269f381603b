package pool

import (
	"strconv"
	"unsafe"
)

// Zero-allocation helpers for the tokenizer and row builder hot paths.

// BytesToString converts a byte slice to a string without allocation.
// The returned string shares memory with the byte slice; do not modify
// the slice while the string is live.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// ParseInt64 parses an int64 from a byte slice without allocation.
func ParseInt64(b []byte) (int64, error) {
	return strconv.ParseInt(BytesToString(b), 10, 64)
}

// ParseFloat64 parses a float64 from a byte slice without allocation.
func ParseFloat64(b []byte) (float64, error) {
	return strconv.ParseFloat(BytesToString(b), 64)
}
