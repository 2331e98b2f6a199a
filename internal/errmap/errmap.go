// Package errmap translates domain errors into a transport-neutral status.
// The HTTP and bus edges both render from the same table.
package errmap

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/lmsauth/internal/common"
)

const internalMessage = "Process Failed. Please try again later."

// Status is what an edge needs to render an error.
type Status struct {
	Code    int
	Error   string
	Message string
	Fields  []common.FieldError
}

type rule struct {
	match  func(error) bool
	code   int
	render func(error) (string, []common.FieldError)
}

func fixed(msg string) func(error) (string, []common.FieldError) {
	return func(error) (string, []common.FieldError) { return msg, nil }
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

// rules are evaluated in order, the first match wins.
var rules = []rule{
	{
		match: func(err error) bool {
			var ve *common.ValidationError
			return errors.As(err, &ve)
		},
		code: http.StatusBadRequest,
		render: func(err error) (string, []common.FieldError) {
			var ve *common.ValidationError
			errors.As(err, &ve)
			return ve.Error(), ve.Fields
		},
	},
	{match: is(common.ErrMalformedInput), code: http.StatusBadRequest, render: fixed("Malformed request body")},
	{
		match: func(err error) bool {
			var ce *common.ConflictError
			return errors.As(err, &ce)
		},
		code: http.StatusConflict,
		render: func(err error) (string, []common.FieldError) {
			var ce *common.ConflictError
			errors.As(err, &ce)
			return ce.Error(), nil
		},
	},
	{match: is(common.ErrWrongCredentials), code: http.StatusUnauthorized, render: fixed("Wrong Password")},
	{
		match: func(err error) bool {
			var ue *common.UnauthenticatedError
			return errors.As(err, &ue)
		},
		code: http.StatusUnauthorized,
		render: func(err error) (string, []common.FieldError) {
			var ue *common.UnauthenticatedError
			errors.As(err, &ue)
			return ue.Message, nil
		},
	},
	{match: is(common.ErrUnauthenticated), code: http.StatusUnauthorized, render: fixed("Unauthorized")},
	{match: is(common.ErrorNotFound), code: http.StatusNotFound, render: fixed("User Not Found")},
}

// FromError maps err to its Status. Unknown errors become a generic 500 so
// no internal detail reaches the caller.
func FromError(err error) Status {
	for _, r := range rules {
		if r.match(err) {
			msg, fields := r.render(err)
			return Status{Code: r.code, Error: http.StatusText(r.code), Message: msg, Fields: fields}
		}
	}
	return Status{
		Code:    http.StatusInternalServerError,
		Error:   http.StatusText(http.StatusInternalServerError),
		Message: internalMessage,
	}
}
