package core

import "errors"

var (
	ErrEmptySeries      = errors.New("empty price series")
	ErrInvalidInterval  = errors.New("invalid interval")
	ErrInvalidLimit     = errors.New("invalid limit")
	ErrInsufficientData = errors.New("insufficient data")
)
