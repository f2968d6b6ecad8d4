package common

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// UploadResponse is returned by POST /jobs/upload
type UploadResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobPathParam binds and validates the job id of /jobs/:id routes
type JobPathParam struct {
	ID string `param:"id" validate:"required,alphanum,max=64"`
}
