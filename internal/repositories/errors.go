package repositories

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCartChanged       = errors.New("cart changed during checkout")
)
