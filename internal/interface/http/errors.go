package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-directory/internal/domain/apperror"
	"github.com/oksasatya/user-directory/pkg/helpers"
	"github.com/oksasatya/user-directory/pkg/response"
	"github.com/oksasatya/user-directory/pkg/validation"
)

// writeError renders err in the response envelope. Errors outside the
// apperror taxonomy are reported as service exceptions.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	ae, ok := apperror.As(err)
	if !ok {
		ae = apperror.ErrService.WithCause(err)
	}
	if ae.HTTPStatus() >= http.StatusInternalServerError && logger != nil {
		helpers.LogError(logger, "request failed", err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		})
	}
	response.Error[any](c, ae.HTTPStatus(), ae.Message(), response.ErrorBody{Code: ae.Code(), Details: ae.Details()})
}

func badPayload(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", response.ErrorBody{
		Code:    apperror.ErrValidation.Code(),
		Details: validation.ToDetails(err),
	})
}
