package aggregate

// Result is the settled outcome of one fan-out task: either a value or an
// error, never both.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps a task error.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// IsOk reports whether the task succeeded.
func (r Result[T]) IsOk() bool {
	return r.Err == nil
}
