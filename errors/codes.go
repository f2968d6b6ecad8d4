package errors

// ErrorCode identifies an error category in API responses
type ErrorCode int32

const (
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1002

	// Job errors
	ErrorCode_JOB_NOT_FOUND        ErrorCode = 2000
	ErrorCode_JOB_RESULT_NOT_READY ErrorCode = 2001
	ErrorCode_JOB_ENQUEUE_FAILED   ErrorCode = 2002
	ErrorCode_UPLOAD_TOO_LARGE     ErrorCode = 2003

	// Integration errors
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 3000
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_JOB_NOT_FOUND:              "JOB_NOT_FOUND",
	ErrorCode_JOB_RESULT_NOT_READY:       "JOB_RESULT_NOT_READY",
	ErrorCode_JOB_ENQUEUE_FAILED:         "JOB_ENQUEUE_FAILED",
	ErrorCode_UPLOAD_TOO_LARGE:           "UPLOAD_TOO_LARGE",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
