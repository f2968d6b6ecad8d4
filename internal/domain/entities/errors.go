package entities

import "errors"

// Pipeline errors
var (
	// ErrInputNotFound means the job directory holds no recognized audio file
	ErrInputNotFound = errors.New("no supported audio file found")
	// ErrASRFailed wraps any speech recognition engine failure
	ErrASRFailed = errors.New("speech recognition failed")
	// ErrDiarizationFailed wraps diarization engine failures; never fatal to a job
	ErrDiarizationFailed = errors.New("diarization failed")
	// ErrExtractionUnavailable covers LLM transport errors, timeouts and non-2xx responses
	ErrExtractionUnavailable = errors.New("llm extraction unavailable")
	// ErrMalformedOutput means no JSON object could be located in the LLM response
	ErrMalformedOutput = errors.New("malformed llm output")
	// ErrSchema means an extractor payload has a 'todos' field that is not a list
	ErrSchema = errors.New("invalid todo payload schema")
)

// Job store errors
var (
	ErrJobNotFound    = errors.New("job not found")
	ErrResultNotReady = errors.New("result not ready")
	ErrInvalidJobID   = errors.New("invalid job id")
)

// ErrQueueClosed is returned by a job queue after Close
var ErrQueueClosed = errors.New("queue closed")
