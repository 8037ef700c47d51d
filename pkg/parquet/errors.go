package parquet

import "errors"

var (
	ErrInvalidFormat   = errors.New("invalid parquet data")
	ErrUnsupportedType = errors.New("unsupported column type")
)
