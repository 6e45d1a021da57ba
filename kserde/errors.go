package kserde

import (
	"errors"
	"fmt"
)

var (
	ErrType   = errors.New("kserde: unexpected value type")
	ErrLength = errors.New("kserde: unexpected data length")
	ErrJSON   = errors.New("kserde: json")
)

func typeError[T any](v any) error {
	var want T
	return fmt.Errorf("%w: want %T, got %T", ErrType, want, v)
}
