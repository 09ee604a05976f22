package services

import "errors"

var (
	ErrInvalidProduct     = errors.New("invalid product")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrUnknownSize        = errors.New("size not offered")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidToken       = errors.New("invalid token")
)

// EventPublisher sends domain events to the message broker. *rabbitmq.Client
// implements it; a nil publisher disables events.
type EventPublisher interface {
	PublishJSON(routingKey string, v any) error
}
