package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"FINTRACK_BACK-END/internal/apperror"
	"FINTRACK_BACK-END/internal/logger"
	"FINTRACK_BACK-END/internal/utils"
)

// writeServiceError maps a service error to its status. Internal causes are
// logged and replaced by a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
			logger.FieldPath, r.URL.Path,
			logger.FieldError, err)
	}
	utils.WriteErrorResponse(w, apperror.HTTPStatus(kind), apperror.Title(kind), apperror.PublicMessage(err))
}

// callerID reads the authenticated user or writes a 401
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
	}
	return id, ok
}
