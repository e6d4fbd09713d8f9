package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 12000-12999: Problem & Content errors
// 13000-13999: Verification errors
// 14000-14999: Review & Scheduling errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError       ErrorCode = 10100
	RecordNotFound      ErrorCode = 10101
	RecordAlreadyExists ErrorCode = 10102
	TransactionFailed   ErrorCode = 10103

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200
	CacheMiss  ErrorCode = 10201

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Problem & Content Errors (12000-12999) ==========

	// Problem basic (12000-12099)
	ProblemNotFound     ErrorCode = 12000
	ProblemCreateFailed ErrorCode = 12002
	ProblemDeleteFailed ErrorCode = 12004

	// Sample packs (12100-12199)
	SamplesNotCached  ErrorCode = 12100
	SamplePackCorrupt ErrorCode = 12101
	SampleFetchFailed ErrorCode = 12102

	// Workspace (12200-12299)
	WorkspaceSetupFailed ErrorCode = 12200
	WorkspaceBusy        ErrorCode = 12201

	// ========== Verification Errors (13000-13999) ==========

	SolutionNotFound  ErrorCode = 13000
	CompilationFailed ErrorCode = 13001
	NoTestInputs      ErrorCode = 13002
	ExecutionFailed   ErrorCode = 13003
	VerifyAborted     ErrorCode = 13004

	// ========== Review & Scheduling Errors (14000-14999) ==========

	InvalidRating        ErrorCode = 14000
	ReviewStateNotFound  ErrorCode = 14001
	ReviewUpdateConflict ErrorCode = 14002
	AttemptRecordFailed  ErrorCode = 14003
)

// codeMessages maps error codes to default human-readable messages
var codeMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	ServiceUnavailable:  "Service unavailable",
	Timeout:             "Operation timed out",

	DatabaseError:       "Database operation failed",
	RecordNotFound:      "Record not found",
	RecordAlreadyExists: "Record already exists",
	TransactionFailed:   "Transaction failed",

	CacheError: "Cache operation failed",
	CacheMiss:  "Cache miss",

	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	ProblemNotFound:     "Problem not found",
	ProblemCreateFailed: "Failed to create problem",
	ProblemDeleteFailed: "Failed to delete problem",

	SamplesNotCached:  "No cached samples for problem",
	SamplePackCorrupt: "Sample pack is corrupt",
	SampleFetchFailed: "Failed to fetch samples",

	WorkspaceSetupFailed: "Workspace setup failed",
	WorkspaceBusy:        "Workspace has a verification run in flight",

	SolutionNotFound:  "Solution file not found",
	CompilationFailed: "Compilation failed",
	NoTestInputs:      "No test input files found",
	ExecutionFailed:   "Execution failed",
	VerifyAborted:     "Verification aborted",

	InvalidRating:        "Invalid recall rating",
	ReviewStateNotFound:  "Review state not found",
	ReviewUpdateConflict: "Concurrent review update detected",
	AttemptRecordFailed:  "Failed to record attempt",
}

// Message returns the default message for an error code
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus maps an error code to an HTTP status for the read-only API
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == RecordNotFound, c == ProblemNotFound,
		c == ReviewStateNotFound, c == SamplesNotCached:
		return 404
	case c == ServiceUnavailable:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == InvalidRating:
		return 400
	case c == WorkspaceBusy, c == ReviewUpdateConflict:
		return 409
	default:
		return 500
	}
}
