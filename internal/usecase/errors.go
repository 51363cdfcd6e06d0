package usecase

import "errors"

// ErrInvalidInput marks caller mistakes that map to a 400 response.
var ErrInvalidInput = errors.New("invalid input")
