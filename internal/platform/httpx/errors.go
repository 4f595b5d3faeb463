// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("validation failed")
)

// ErrorBody is the envelope returned by every failing endpoint.
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details"`
}

// statusCarrier is implemented by errors that know the upstream HTTP status.
type statusCarrier interface {
	HTTPStatus() int
}

// detailCarrier is implemented by errors that can expose a structured payload.
type detailCarrier interface {
	ErrorDetails() any
}

// StatusOf infers the response status for err: validation maps to 400, not found to
// 404, an upstream status is mirrored when known, everything else is 500.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	}
	var sc statusCarrier
	if errors.As(err, &sc) {
		if status := sc.HTTPStatus(); status >= 400 && status <= 599 {
			return status
		}
	}
	return http.StatusInternalServerError
}

// DetailsOf returns the most useful description of err for clients.
func DetailsOf(err error) any {
	if err == nil {
		return nil
	}
	var dc detailCarrier
	if errors.As(err, &dc) {
		if details := dc.ErrorDetails(); details != nil {
			return details
		}
	}
	return err.Error()
}

// RespondError writes the {error, details} envelope for err.
func RespondError(w http.ResponseWriter, err error, message string) {
	JSON(w, StatusOf(err), ErrorBody{Error: message, Details: DetailsOf(err)})
}
