package catalog

import "errors"

var (
	ErrUnknownCategory   = errors.New("unknown category")
	ErrUnknownGender     = errors.New("unknown gender")
	ErrUnknownSize       = errors.New("size not offered for category")
	ErrSizeNotApplicable = errors.New("category has no sizes")
	ErrDuplicateSize     = errors.New("size already selected")
	ErrIndexOutOfRange   = errors.New("size entry index out of range")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidDraft      = errors.New("draft is incomplete")
)
