// Package handlers provides the HTTP request handlers for the prescriptions API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/giygas/prescriptions-api/interfaces"
	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/prescription"
	"github.com/giygas/prescriptions-api/validation"
)

// Prescriber turns a clinical note into a prescription document
type Prescriber interface {
	Prescribe(ctx context.Context, note string) prescription.Result
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	prescriber Prescriber
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(prescriber Prescriber) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{prescriber: prescriber}
}

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response of the form {"error": message}
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// Chat normalizes the note in the request body into a prescription document.
// Once the request is valid the answer is always 200; the body holds the
// default document when the model reply could not be used.
func (h *HTTPHandlerImpl) Chat(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeChatRequest(r.Body)
	if err != nil {
		switch {
		case errors.Is(err, validation.ErrNoText):
			RespondWithError(w, http.StatusBadRequest, validation.ErrNoText.Error())
		default:
			logging.Warn("Rejected chat request body", "error", err)
			RespondWithError(w, http.StatusBadRequest, validation.ErrInvalidBody.Error())
		}
		return
	}

	result := h.prescriber.Prescribe(r.Context(), req.Text)
	RespondWithJSON(w, http.StatusOK, prescription.Envelope{Response: result.Document})
}

// HealthCheck reports liveness
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Schema serves the JSON Schema of the /chat response body
func (h *HTTPHandlerImpl) Schema(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, prescription.Schema())
}
