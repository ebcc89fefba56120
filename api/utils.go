package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

const maxRequestBodyBytes = 1 << 20 // 1MB

// respondJSON writes a JSON response with proper error handling
func (a *API) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Errorw("Failed to encode JSON response",
			"error", err,
			"data_type", fmt.Sprintf("%T", data))
		// Response already started, error is logged for monitoring
	}
}

// writeError logs the full error internally and sends the message to the client
func writeError(w http.ResponseWriter, statusCode int, message string, err error, logger *zap.SugaredLogger) {
	if logger != nil {
		if err != nil {
			logger.Errorw(message, "error", err.Error(), "status_code", statusCode)
		} else {
			logger.Errorw(message, "status_code", statusCode)
		}
	}
	http.Error(w, message, statusCode)
}

// decodeJSONBody decodes a JSON request body into the provided value,
// rejecting unknown fields and oversized bodies
func (a *API) decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err, a.logger)
		return err
	}
	return nil
}
