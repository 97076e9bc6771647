package infer

import "errors"

var (
	ErrNotObject = errors.New("not a plain object")
)
