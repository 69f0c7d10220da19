// Package handlers contains the HTTP layer: thin request parsing and
// response framing around the pipeline services.
package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/utils"
)

// validationDetails converts validator field errors into the details
// shape the error writers accept.
func validationDetails(err error) map[string]interface{} {
	fields := utils.GetValidationFields(err)
	if len(fields) == 0 {
		return nil
	}
	details := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return details
}

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	switch {
	case services.IsNotFoundError(err):
		if werr := utils.WriteNotFound(w, err.Error()); werr != nil {
			logger.Error("failed to write not found response", zap.Error(werr))
		}

	case services.IsValidationError(err):
		if werr := utils.WriteBadRequest(w, err.Error(), details); werr != nil {
			logger.Error("failed to write bad request response", zap.Error(werr))
		}

	case services.IsRetrievalError(err):
		if werr := utils.WriteError(w, http.StatusServiceUnavailable, err.Error(), details); werr != nil {
			logger.Error("failed to write service unavailable response", zap.Error(werr))
		}

	default:
		logger.Error("unhandled service error", zap.Error(err))
		if werr := utils.WriteInternalServerError(w, "An unexpected error occurred"); werr != nil {
			logger.Error("failed to write internal error response", zap.Error(werr))
		}
	}
}
