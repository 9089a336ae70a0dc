package exportcache

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for canonicalization")
	ErrNonStringMapKey = errors.New("map keys must be strings")
	ErrKeyCollision    = errors.New("normalized map key collision")
	ErrInvalidNumber   = errors.New("invalid json number literal")
)
