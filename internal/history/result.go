package history

// Result carries a value produced by a best-effort storage call together
// with the error that was logged and swallowed on the way. Value is always
// safe to use; Err is informational.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the underlying storage call succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}
