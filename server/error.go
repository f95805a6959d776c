package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vidmill/vidmill/database"
	"github.com/vidmill/vidmill/pipeline"
)

func writeJSONResponse(rw http.ResponseWriter, code int, result interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	json.NewEncoder(rw).Encode(result)
}

// ErrorJson is the uniform failure body: a single "error" field.
type ErrorJson struct {
	Error string `json:"error"`
}

func writeErrorResponse(rw http.ResponseWriter, code int, message string) {
	writeJSONResponse(rw, code, ErrorJson{Error: message})
}

// writePipelineError maps a pipeline failure class onto the HTTP
// taxonomy: bad input is the caller's fault, everything else is ours.
func writePipelineError(rw http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput):
		writeErrorResponse(rw, http.StatusBadRequest, "Invalid file type")
	case errors.Is(err, pipeline.ErrTranscode):
		writeErrorResponse(rw, http.StatusInternalServerError, "Processing failed")
	case errors.Is(err, pipeline.ErrPublish):
		writeErrorResponse(rw, http.StatusInternalServerError, "Upload failed")
	default:
		writeErrorResponse(rw, http.StatusInternalServerError, "Upload failed")
	}
}

// writeStoreError maps store lookups: missing documents are 404.
func writeStoreError(rw http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, database.ErrNotFound) {
		writeErrorResponse(rw, http.StatusNotFound, notFoundMsg)
		return
	}
	writeErrorResponse(rw, http.StatusInternalServerError, "Internal server error")
}
