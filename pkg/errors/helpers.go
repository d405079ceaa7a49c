package errors

import "errors"

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNotFound)
}

// IsInitialization checks if an error indicates a failed startup precondition.
func IsInitialization(err error) bool {
	if err == nil {
		return false
	}

	var initErr *InitializationError
	return errors.As(err, &initErr)
}

// IsDiscoveryRound checks if an error indicates a failed discovery round.
func IsDiscoveryRound(err error) bool {
	if err == nil {
		return false
	}

	var roundErr *DiscoveryRoundError
	return errors.As(err, &roundErr)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}

	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsTimeout checks if an error indicates an operation timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTimeout)
}

// GetCode extracts the error code from a typed error, or CodeUnknown for
// plain errors.
func GetCode(err error) string {
	if err == nil {
		return CodeOK
	}

	var typed Error
	if errors.As(err, &typed) {
		return typed.Code()
	}
	return CodeUnknown
}
