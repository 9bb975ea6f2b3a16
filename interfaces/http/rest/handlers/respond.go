package handlers

import (
	"errors"
	"net/http"

	"graphdesk-backend/pkg/common"
	pkgerrors "graphdesk-backend/pkg/errors"
)

// respondAppError maps a core error onto the response envelope.
func respondAppError(w http.ResponseWriter, err error) {
	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) {
		common.RespondError(w, appErr.HTTPStatus, string(appErr.Type), appErr.Message)
		return
	}
	common.RespondError(w, http.StatusInternalServerError, string(pkgerrors.ErrorTypeInternal), err.Error())
}
