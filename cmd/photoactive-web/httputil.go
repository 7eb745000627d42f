package main

import (
	"encoding/json"
	"net/http"

	"github.com/photoactive-studio/photoactive/internal/diagnosis"
	"github.com/photoactive-studio/photoactive/internal/locale"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func httpError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// errorPayload is the failure body every API handler returns: a stable kind
// for the frontend plus the localized human-readable message.
type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// respondDiagnosisError maps a classified failure to a status code and
// localized payload.
func respondDiagnosisError(w http.ResponseWriter, lang locale.Tag, err error) {
	kind := diagnosis.KindOf(err)

	status := http.StatusBadGateway
	switch kind {
	case diagnosis.KindInvalidInput:
		status = http.StatusUnprocessableEntity
	case diagnosis.KindMissingCredential:
		status = http.StatusPreconditionFailed
	}

	respondJSON(w, status, errorPayload{
		Kind:    kind.String(),
		Message: locale.ErrorMessage(lang, kind.String()),
	})
}
