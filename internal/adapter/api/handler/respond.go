package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes carried in the "error" field of every error body.
const (
	CodeUnauthorized    = "unauthorized"
	CodeValidation      = "validation_error"
	CodeRateLimited     = "rate_limited"
	CodePayloadTooLarge = "payload_too_large"
	CodeBadRequest      = "bad_request"
	CodeNotFound        = "not_found"
	CodeTimeout         = "timeout"
	CodeInternal        = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// RespondJSON writes payload as JSON with the given status code.
func RespondJSON(w http.ResponseWriter, logger *slog.Logger, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal JSON response", "error", err)
		code = http.StatusInternalServerError
		response = []byte(`{"detail":"Internal Server Error","error":"internal_error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondError writes the standard error body.
func RespondError(w http.ResponseWriter, logger *slog.Logger, code int, errCode, detail string) {
	RespondJSON(w, logger, code, ErrorResponse{Detail: detail, Error: errCode})
}
