package errors

// Error codes for categorizing errors across the node's subsystems.
const (
	// CodeOK indicates success (not an error).
	CodeOK = "OK"

	// CodeCancelled indicates the operation was cancelled.
	CodeCancelled = "CANCELLED"

	// CodeUnknown indicates an unknown error occurred.
	CodeUnknown = "UNKNOWN"

	// CodeInvalidArgument indicates the caller specified an invalid argument.
	CodeInvalidArgument = "INVALID_ARGUMENT"

	// CodeDeadlineExceeded indicates an operation deadline was exceeded.
	CodeDeadlineExceeded = "DEADLINE_EXCEEDED"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound = "NOT_FOUND"

	// CodeAlreadyExists indicates attempting to create a resource that already exists.
	CodeAlreadyExists = "ALREADY_EXISTS"

	// CodeFailedPrecondition indicates an operation was rejected because the
	// system is not in a required state.
	CodeFailedPrecondition = "FAILED_PRECONDITION"

	// CodeInternal indicates internal errors.
	CodeInternal = "INTERNAL"

	// CodeUnavailable indicates a required collaborator is currently unavailable.
	CodeUnavailable = "UNAVAILABLE"

	// Domain-specific error codes

	// CodeValidation indicates configuration or input validation failed.
	CodeValidation = "VALIDATION"

	// CodeInitialization indicates a subsystem failed a startup precondition.
	CodeInitialization = "INITIALIZATION"

	// CodeDiscoveryRound indicates a discovery round as a whole could not proceed.
	CodeDiscoveryRound = "DISCOVERY_ROUND"
)
