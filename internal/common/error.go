package common

// Error pairs one of the sentinel kinds above with a message that is safe to
// show to the caller. errors.Is(err, kind) matches through Unwrap.
type Error struct {
	kind    error
	message string
}

// NewError returns an error of the given kind carrying a user-visible message.
func NewError(kind error, message string) *Error {
	return &Error{kind: kind, message: message}
}

func (e *Error) Error() string { return e.message }

func (e *Error) Unwrap() error { return e.kind }

// Kind returns the sentinel the error was built from.
func (e *Error) Kind() error { return e.kind }
