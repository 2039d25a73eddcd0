package models

import "errors"

// Custom errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateKey      = errors.New("duplicate key violation")
	ErrInvalidID         = errors.New("invalid ID format")
	ErrInsufficientData  = errors.New("insufficient sample for analysis")
	ErrMissingMarketType = errors.New("market type is required")
	ErrUnknownMarketType = errors.New("unknown market type")
)
