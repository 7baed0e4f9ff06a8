package checkout

import "errors"

var (
	ErrEmptyCart            = errors.New("nothing to checkout")
	ErrInvalidSelection     = errors.New("selected product variant cannot be ordered")
	ErrSubmissionInProgress = errors.New("order submission already in progress")
)

const submissionFailedMessage = "could not place the order, please try again"

// SubmissionError is a backend failure while materializing an order. Its
// message is safe to show; the cause is kept for logs.
type SubmissionError struct {
	cause error
}

func (e *SubmissionError) Error() string {
	return submissionFailedMessage
}

func (e *SubmissionError) Unwrap() error {
	return e.cause
}

func submissionFailed(err error) error {
	return &SubmissionError{cause: err}
}
