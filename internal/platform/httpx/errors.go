// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("service unavailable")
	ErrRateLimited = errors.New("rate limited")
)

// FieldError is implemented by validation errors tied to one input.
type FieldError interface {
	error
	InvalidField() string
}

var problemTitles = map[int]string{
	http.StatusNotFound:            "Not Found",
	http.StatusBadRequest:          "Validation Failed",
	http.StatusServiceUnavailable:  "Dataset Unavailable",
	http.StatusTooManyRequests:     "Too Many Requests",
	http.StatusInternalServerError: "Internal Error",
}

// StatusFor maps an error onto its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ProblemFor builds the problem document for err. Internal errors carry no
// detail.
func ProblemFor(r *http.Request, err error) ProblemDetail {
	status := StatusFor(err)
	problem := ProblemDetail{Title: problemTitles[status], Status: status}
	if r != nil {
		problem.Instance = r.URL.Path
	}
	if status == http.StatusInternalServerError {
		return problem
	}
	problem.Detail = err.Error()
	var fe FieldError
	if errors.As(err, &fe) {
		problem.Field = fe.InvalidField()
	}
	return problem
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	Problem(w, ProblemFor(r, err))
}
