package actionspace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/churninator/churninator/agent/callparser"
	"github.com/churninator/churninator/types"
)

// Sentinel reasons wrapped by MalformedActionError.
var (
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")
)

// MalformedActionError reports a single call that could not be normalized.
type MalformedActionError struct {
	// Index is the position of the call in the batch.
	Index int
	// Call is a snapshot of the offending call before normalization.
	Call *callparser.Call
	// Field is the parameter that was missing or invalid.
	Field string
	// Err is ErrMissingArgument or ErrInvalidArgument, possibly wrapped.
	Err error
}

func (e *MalformedActionError) Error() string {
	name := ""
	if e.Call != nil {
		name = e.Call.String()
	}
	return fmt.Sprintf("malformed action #%d %s: %s: %v", e.Index, name, e.Field, e.Err)
}

func (e *MalformedActionError) Unwrap() error { return e.Err }

// ErrorCode maps the error onto types.ErrMalformedAction.
func (e *MalformedActionError) ErrorCode() types.ErrorCode { return types.ErrMalformedAction }

// BatchError collects every MalformedActionError of one Normalize call.
type BatchError struct {
	Total  int
	Errors []*MalformedActionError
}

func (e *BatchError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d of %d actions malformed: %s", len(e.Errors), e.Total, strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err
	}
	return out
}

// ErrorCode maps the error onto types.ErrMalformedAction.
func (e *BatchError) ErrorCode() types.ErrorCode { return types.ErrMalformedAction }

// Failed reports whether the call at index failed normalization.
func (e *BatchError) Failed(index int) bool {
	for _, err := range e.Errors {
		if err.Index == index {
			return true
		}
	}
	return false
}

// Failures returns the failed indexes of err when it is a *BatchError.
func Failures(err error) map[int]*MalformedActionError {
	var be *BatchError
	if !errors.As(err, &be) {
		return nil
	}
	out := make(map[int]*MalformedActionError, len(be.Errors))
	for _, e := range be.Errors {
		out[e.Index] = e
	}
	return out
}
