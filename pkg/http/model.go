package http

// Envelope is the uniform response body: HTTP-style status, its text, and
// the payload.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one failed request field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty"`
	Field   string                 `json:"field,omitempty"`
	Message string                 `json:"message,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// ListPayload wraps list responses with their total count.
type ListPayload struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
}
