package httputil

// Machine-readable error codes returned in the "code" field of error
// responses. Clients should branch on these rather than on messages.
const (
	CodeInvalidRequestBody    = "INVALID_REQUEST_BODY"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodePasswordTooShort      = "PASSWORD_TOO_SHORT"
	CodeInvalidEmailFormat    = "INVALID_EMAIL_FORMAT"
	CodeEmailAlreadyExists    = "EMAIL_ALREADY_EXISTS"
	CodeInvalidActivationCode = "INVALID_ACTIVATION_CODE"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeMissingAuth           = "MISSING_AUTH"
	CodeSessionExpired        = "SESSION_EXPIRED"
	CodeUserNotFound          = "USER_NOT_FOUND"
	CodeTooManyRequests       = "TOO_MANY_REQUESTS"
	CodeInternalError         = "INTERNAL_ERROR"
)
