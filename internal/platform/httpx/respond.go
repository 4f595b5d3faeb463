package httpx

import (
	"encoding/json"
	"net/http"
)

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Fail writes the error envelope with an explicit status. Details fall back to message
// when err carries none.
func Fail(w http.ResponseWriter, status int, message string, err error) {
	details := DetailsOf(err)
	if details == nil {
		details = message
	}
	JSON(w, status, ErrorBody{Error: message, Details: details})
}

// BadRequest sends a 400 envelope.
func BadRequest(w http.ResponseWriter, message string, err error) {
	Fail(w, http.StatusBadRequest, message, err)
}

// DecodeJSON decodes JSON request body into the target.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
