package http

// ErrorResponse is the error envelope that carries a machine-readable kind.
type ErrorResponse struct {
	Status    int         `json:"status" example:"400"`
	Message   string      `json:"message" example:"Bad Request"`
	ErrorKind string      `json:"error_kind" example:"InvalidRequest"`
	Errors    interface{} `json:"errors,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"pair"`
	Message string                 `json:"message,omitempty" example:"pair is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
