package inference

import "fmt"

// Error is a failed prediction. Field names the request field that could
// not be read; it is empty when the model itself failed.
type Error struct {
	Op    string
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInput reports whether the caller sent a malformed field.
func (e *Error) InvalidInput() bool {
	return e.Field != ""
}
