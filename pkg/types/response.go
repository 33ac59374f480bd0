package types

// SuccessEnvelope wraps single-entity payloads.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorBody is the backend's error payload; clients only rely on message.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
