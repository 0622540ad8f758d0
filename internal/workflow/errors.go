package workflow

import "errors"

var (
	// ErrNetwork means the inference call could not complete or returned a non-2xx status
	ErrNetwork = errors.New("network error")

	// ErrMalformedResponse means the payload was not recognizable; the answer
	// still carries a FreeText fallback
	ErrMalformedResponse = errors.New("malformed inference response")

	// ErrConcurrentSubmission rejects a second submit or save while one is in flight
	ErrConcurrentSubmission = errors.New("request already in flight")

	// ErrPersistence means the case store rejected or never received the draft
	ErrPersistence = errors.New("persistence error")

	// ErrInvalidState rejects an operation the current state does not allow
	ErrInvalidState = errors.New("invalid workflow state")

	// ErrClosed is returned once the workflow has been closed
	ErrClosed = errors.New("workflow closed")

	// ErrEmptyQuery is returned for blank queries when rejection is enabled
	ErrEmptyQuery = errors.New("query is empty")
)
