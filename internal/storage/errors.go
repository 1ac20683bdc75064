package storage

import "errors"

// Error kinds reported by tinyFrame. Callers match them with errors.Is; the
// wrapped message carries the operation and the offending name or position.
var (
	// ErrShapeMismatch reports columns or masks of unequal length.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrSource reports an unreadable or malformed input source.
	ErrSource = errors.New("source error")
	// ErrLabelNotFound reports a row label or column name that does not exist.
	ErrLabelNotFound = errors.New("label not found")
	// ErrIndexOutOfRange reports a position outside the table bounds.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrType reports an operation applied to an incompatible column type.
	ErrType = errors.New("type error")
	// ErrEmptyColumn reports an aggregation over a column with no values.
	ErrEmptyColumn = errors.New("empty column")
	// ErrDuplicateColumn reports a column name used twice in one table.
	ErrDuplicateColumn = errors.New("duplicate column")
)
