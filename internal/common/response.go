package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorBody is the payload under the "error" key of every failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

type dataEnvelope struct {
	Data any `json:"data"`
}

// JSON encodes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data wraps payload in the {"data": ...} envelope.
func Data(w http.ResponseWriter, status int, payload any) {
	JSON(w, status, dataEnvelope{Data: payload})
}

// JSONError writes an {"error": {...}} envelope.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, errorEnvelope{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

// WriteError renders err using Classify. 5xx responses carry a generic message.
func WriteError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	if err != nil {
		status, code = Classify(err)
	}
	if status >= http.StatusInternalServerError {
		JSONError(w, status, code, "internal error", nil)
		return
	}

	body := ErrorBody{Code: code, Message: err.Error()}
	if appErr := (*AppError)(nil); errors.As(err, &appErr) {
		if appErr.Message != "" {
			body.Message = appErr.Message
		}
		body.Details = appErr.Details
	}
	JSON(w, status, errorEnvelope{Error: body})
}
