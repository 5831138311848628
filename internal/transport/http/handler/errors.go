package handler

const (
	errInternalServer     = "Internal server error"
	errInvalidCredentials = "Invalid credentials"
	errWeakPassword       = "Password does not meet requirements"
	errDuplicateEmail     = "Email is already registered"
	errResetTokenInvalid  = "Reset token is invalid or expired"
	errNotConfigured      = "Provider is not configured"
)
