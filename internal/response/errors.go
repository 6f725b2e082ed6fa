package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication / Authorization ────────────────────────────────
	ErrTokenRequired        ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid         ErrCode = "TOKEN_INVALID"
	ErrForbidden            ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly    ErrCode = "STUDENT_ACCESS_ONLY"
	ErrInstructorAccessOnly ErrCode = "INSTRUCTOR_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidCourse  ErrCode = "INVALID_COURSE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrDeleteFailed ErrCode = "DELETE_FAILED"

	// ─── Quiz lifecycle ────────────────────────────────────────────────
	ErrQuizNotDraft     ErrCode = "QUIZ_NOT_DRAFT"
	ErrQuizNotPublished ErrCode = "QUIZ_NOT_PUBLISHED"

	// ─── Attempts ──────────────────────────────────────────────────────
	ErrNotAvailableYet      ErrCode = "NOT_AVAILABLE_YET"
	ErrNoLongerAvailable    ErrCode = "NO_LONGER_AVAILABLE"
	ErrAttemptLimitExceeded ErrCode = "ATTEMPT_LIMIT_EXCEEDED"
	ErrAlreadySubmitted     ErrCode = "ALREADY_SUBMITTED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrInstructorAccessOnly:
		return "This resource is restricted to instructors."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."
	case ErrInvalidCourse:
		return "A course ID is required."

	case ErrNotFound:
		return "The requested resource was not found."
	case ErrDeleteFailed:
		return "The resource could not be deleted."

	case ErrQuizNotDraft:
		return "The quiz is not in DRAFT status."
	case ErrQuizNotPublished:
		return "The quiz is not published."

	case ErrNotAvailableYet:
		return "The quiz is not available yet."
	case ErrNoLongerAvailable:
		return "The quiz is no longer available."
	case ErrAttemptLimitExceeded:
		return "The maximum number of attempts has been reached."
	case ErrAlreadySubmitted:
		return "This attempt has already been submitted."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
