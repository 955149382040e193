package models

// Purpose tells which flow an OTP challenge belongs to.
type Purpose int

const (
	PurposeSignupConfirm Purpose = iota + 1
	PurposeEmailChange
)

func (p Purpose) String() string {
	switch p {
	case PurposeSignupConfirm:
		return "signup_confirm"
	case PurposeEmailChange:
		return "email_change"
	default:
		return "unknown"
	}
}

// OtpChallenge is one outstanding passcode verification. It lives only in
// memory until it is consumed or cancelled.
type OtpChallenge struct {
	Subject string
	Code    string
	Purpose Purpose
}

// VerifySignupRequest is the wire body of POST /Patient/auth/Verify-otp.
type VerifySignupRequest struct {
	Username string `json:"username"`
	OTP      string `json:"otp"`
}

// VerifyResponse is returned by the sign-up OTP endpoint.
type VerifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// EmailUpdateRequest is the wire body of POST /Patient/auth/requestEmailUpdate.
type EmailUpdateRequest struct {
	NewEmail string `json:"newEmail"`
}

// VerifyEmailUpdateRequest is the wire body of POST /Patient/auth/verifyEmailUpdateOTP.
type VerifyEmailUpdateRequest struct {
	OTP      string `json:"otp"`
	NewEmail string `json:"newEmail"`
}

// ErrorResponse is the portal's error body.
type ErrorResponse struct {
	Message string `json:"message,omitempty"`
}
