package service

// BadRequestError reports a structurally invalid request, detected before
// any network or storage I/O.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string { return e.Message }

// badRequest is a shorthand used by validation functions
func badRequest(message string) error {
	return &BadRequestError{Message: message}
}
