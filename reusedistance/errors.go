package reusedistance

import "github.com/cockroachdb/errors"

// ErrInputShape marks errors caused by an access table that is not made of
// non-negative integer (row, line) pairs.
var ErrInputShape = errors.New("malformed access table")

// ErrInputIO marks errors caused by an access source that cannot be read.
var ErrInputIO = errors.New("access source unavailable")

// NewInputShapeError creates an error marked with ErrInputShape.
func NewInputShapeError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInputShape)
}

// NewInputIOError wraps cause and marks it with ErrInputIO.
func NewInputIOError(cause error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(cause, format, args...), ErrInputIO)
}

// IsInputShapeError tells if err was caused by a malformed access table.
func IsInputShapeError(err error) bool {
	return errors.Is(err, ErrInputShape)
}

// IsInputIOError tells if err was caused by an unreadable source.
func IsInputIOError(err error) bool {
	return errors.Is(err, ErrInputIO)
}
