package service

import "errors"

// ErrInvalidArgument is returned when request input fails validation.
// Errors wrapping it carry the offending field in their message.
var ErrInvalidArgument = errors.New("invalid argument")
