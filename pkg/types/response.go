// Package types holds the wire envelopes every storefront endpoint responds
// with: payloads under "data", failures under "error".
package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a coded error; Details carries per-field
// validation messages when the code allows them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
