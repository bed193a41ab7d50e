// Package types holds the wire envelopes shared by every API response.
package types

// SuccessEnvelope wraps successful payloads under a single data key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Details carries field-level
// validation messages when the error code allows them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
