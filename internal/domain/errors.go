package domain

import (
	"errors"
	"fmt"
)

// Reason classifies why a transfer failed
type Reason string

const (
	ReasonResolve            Reason = "resolve"
	ReasonStreamSelect       Reason = "stream-select"
	ReasonUnsupportedScheme  Reason = "unsupported-scheme"
	ReasonProbe              Reason = "probe"
	ReasonTemplate           Reason = "template"
	ReasonLocalIO            Reason = "local-io"
	ReasonNetwork            Reason = "network"
	ReasonUnexpectedResponse Reason = "unexpected-response"
	ReasonExec               Reason = "exec"
)

var (
	// ErrWriteAborted is reported by the transport when the write callback
	// consumed fewer bytes than it was handed.
	ErrWriteAborted = errors.New("write callback aborted the transfer")

	// ErrRetrievedAlready is returned by the resume policy when the local
	// file already holds the whole content.
	ErrRetrievedAlready = errors.New("file retrieved already")
)

// TransferError is a classified per-item failure
type TransferError struct {
	Reason  Reason
	Message string
	Err     error
}

// NewTransferError creates a TransferError with a formatted message
func NewTransferError(reason Reason, err error, format string, args ...interface{}) *TransferError {
	return &TransferError{
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func (e *TransferError) Error() string {
	return e.Message
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// ReasonOf returns the reason of a TransferError found in err's chain, or
// an empty reason.
func ReasonOf(err error) Reason {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Reason
	}
	return ""
}
