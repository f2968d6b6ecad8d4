// Package outcome models the result of a pipeline stage that can succeed,
// succeed with reduced fidelity, or fail.
package outcome

// Kind tags an Outcome
type Kind int

const (
	KindOK Kind = iota
	KindDegraded
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindDegraded:
		return "degraded"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the result of one stage. Value is meaningful for OK and Degraded,
// Err only for Fatal. Warnings explain a degradation.
type Outcome[T any] struct {
	Kind     Kind
	Value    T
	Warnings []string
	Err      error
}

// OK wraps a value produced with full fidelity
func OK[T any](v T) Outcome[T] {
	return Outcome[T]{Kind: KindOK, Value: v}
}

// Degraded wraps a usable value plus the warnings describing what was lost.
// With no warnings it is equivalent to OK.
func Degraded[T any](v T, warnings ...string) Outcome[T] {
	if len(warnings) == 0 {
		return OK(v)
	}
	return Outcome[T]{Kind: KindDegraded, Value: v, Warnings: warnings}
}

// Fatal wraps an error that aborts the job
func Fatal[T any](err error) Outcome[T] {
	return Outcome[T]{Kind: KindFatal, Err: err}
}

// Result returns the value and error in conventional Go form
func (o Outcome[T]) Result() (T, error) {
	return o.Value, o.Err
}
