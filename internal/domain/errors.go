package domain

import (
	"errors"

	"github.com/blaisecz/nap-planner/internal/timeutil"
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrConflict         = errors.New("resource conflict")
	ErrDuplicateRequest = errors.New("duplicate client request")
	ErrInvalidInput     = errors.New("invalid input")
	ErrFormat           = timeutil.ErrFormat
	ErrValidation       = errors.New("validation failed")
	ErrInvalidState     = errors.New("invalid state for operation")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrSessionActive    = errors.New("a sleep session is already in progress")
)
