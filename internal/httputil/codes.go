package httputil

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"

	// auth
	CodeAccountExists      = "ACCOUNT_EXISTS"
	CodeUnknownAccount     = "UNKNOWN_ACCOUNT"
	CodeEmailNotConfirmed  = "EMAIL_NOT_CONFIRMED"
	CodeBadCredentials     = "BAD_CREDENTIALS"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeStaleRefreshToken  = "STALE_REFRESH_TOKEN"
	CodeVerificationFailed = "VERIFICATION_FAILED"

	// contacts
	CodeContactNotFound = "CONTACT_NOT_FOUND"
	CodeInvalidAvatar   = "INVALID_AVATAR"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeStorageDisabled = "STORAGE_DISABLED"
)
