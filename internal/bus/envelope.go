// Package bus defines the request/reply contract spoken over NATS between
// the identity service and its callers: subjects, envelopes and the error
// body.
package bus

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/errmap"
	"github.com/google/uuid"
)

const (
	SubjectRegister   = "auth.register"
	SubjectLogin      = "auth.login"
	SubjectGetOwnData = "user.getOwnData"

	// DefaultQueue is the queue group shared by all service instances.
	DefaultQueue = "lms"
)

// Request is the envelope published by callers.
type Request struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// NewRequest wraps data with a fresh time-ordered id.
func NewRequest(data any) (*Request, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode request data: %w", err)
	}
	return &Request{ID: id.String(), Data: raw}, nil
}

// Response carries either a result or an error body, never both.
type Response struct {
	Response json.RawMessage `json:"response,omitempty"`
	Err      *ErrorBody      `json:"err,omitempty"`
}

// ErrorBody mirrors errmap.Status on the wire.
type ErrorBody struct {
	Message string              `json:"message"`
	Code    int                 `json:"code"`
	Error   string              `json:"error"`
	Fields  []common.FieldError `json:"fields,omitempty"`
}

// OK builds a success response around result.
func OK(result any) (*Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Response{Response: raw}, nil
}

// Fail builds an error response through the shared error table.
func Fail(err error) *Response {
	st := errmap.FromError(err)
	return &Response{Err: &ErrorBody{
		Message: st.Message,
		Code:    st.Code,
		Error:   st.Error,
		Fields:  st.Fields,
	}}
}

// RemoteError is an error reply received from the service.
type RemoteError struct {
	Code    int
	Kind    string
	Message string
	Fields  []common.FieldError
}

func (e *RemoteError) Error() string {
	return e.Message
}

// AsError converts an error body to a *RemoteError.
func (b *ErrorBody) AsError() *RemoteError {
	return &RemoteError{Code: b.Code, Kind: b.Error, Message: b.Message, Fields: b.Fields}
}
