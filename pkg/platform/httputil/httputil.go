// Package httputil holds the JSON envelopes shared by every module handler.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "pulseaid/pkg/domain-errors"
)

type errorResponse struct {
	Error       string            `json:"error"`
	Description string            `json:"error_description,omitempty"`
	Kind        string            `json:"kind,omitempty"`
	Entities    map[string]string `json:"entities,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error to its status and envelope. Internal errors
// never expose their description.
func WriteError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: string(dErrors.CodeInternal)}
	status := http.StatusInternalServerError

	if de, ok := dErrors.As(err); ok {
		status = StatusFor(de)
		resp.Error = string(de.Code)
		resp.Kind = string(de.Kind())
		resp.Entities = de.Entities
		if de.Kind() != dErrors.KindInternal {
			resp.Description = de.Message
		}
	}
	WriteJSON(w, status, resp)
}

// StatusFor maps an error's kind (and a few specific codes) to an HTTP status.
func StatusFor(err *dErrors.Error) int {
	switch err.Code {
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeConflict:
		return http.StatusConflict
	}
	switch err.Kind() {
	case dErrors.KindValidation:
		return http.StatusBadRequest
	case dErrors.KindAuthorization:
		return http.StatusForbidden
	case dErrors.KindState, dErrors.KindIdempotency:
		return http.StatusConflict
	case dErrors.KindResource:
		return http.StatusUnprocessableEntity
	case dErrors.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
