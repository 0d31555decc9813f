package models

import "errors"

var (
	ErrEntityNotFound    = errors.New("entity not found")
	ErrComponentNotFound = errors.New("component not found")
)
