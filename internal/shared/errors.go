package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Store errors
	ErrNotFound     = fmt.Errorf("record not found")
	ErrConflict     = fmt.Errorf("record conflicts with an existing record")
	ErrConnectivity = fmt.Errorf("store unavailable")
	ErrTimeout      = fmt.Errorf("operation timed out")

	// Link errors
	ErrPartialLink = fmt.Errorf("link applied to one side only")

	// API errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
