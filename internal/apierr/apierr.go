package apierr

import "fmt"

const (
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidSelection = "INVALID_SELECTION"
	CodeInvalidCriterion = "INVALID_CRITERION"
	CodeUnauthorized     = "UNAUTHORIZED"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(err error) *Error         { return New(404, CodeNotFound, err) }
func InvalidSelection(err error) *Error { return New(422, CodeInvalidSelection, err) }
func InvalidCriterion(err error) *Error { return New(400, CodeInvalidCriterion, err) }
