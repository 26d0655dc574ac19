package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-directory/internal/domain/apperror"
	"github.com/oksasatya/user-directory/internal/interface/middleware"
	"github.com/oksasatya/user-directory/pkg/response"
)

// WhoAmI reports the caller's display name and roles from the identity token.
func (h *UserHandler) WhoAmI(c *gin.Context) {
	claims, ok := middleware.IdentityFrom(c)
	if !ok {
		writeError(c, h.Logger, apperror.ErrUnauthorized)
		return
	}
	roles := claims.Roles
	if roles == nil {
		roles = []string{}
	}
	response.Success(c, http.StatusOK, whoAmIResponse{Name: claims.Name, Roles: roles}, "identity", nil)
}

// Register creates the caller's user record from their identity claims. Both
// outcomes carry a status body; a failure is answered with 500.
func (h *UserHandler) Register(c *gin.Context) {
	claims, ok := middleware.IdentityFrom(c)
	if !ok {
		writeError(c, h.Logger, apperror.ErrUnauthorized)
		return
	}
	u, err := h.Svc.RegisterFromIdentity(c.Request.Context(), claims)
	if err != nil {
		msg, code := err.Error(), apperror.ErrService.Code()
		if ae, ok := apperror.As(err); ok {
			msg, code = ae.Message(), ae.Code()
		}
		h.Logger.WithError(err).WithField("subject", claims.Subject).Warn("registration failed")
		response.Failure(c, http.StatusInternalServerError, registrationStatus{Status: RegistrationFailure, Message: msg}, "registration failed", response.ErrorBody{Code: code})
		return
	}
	response.Success(c, http.StatusOK, registrationStatus{Status: RegistrationSuccess, Message: "User registered successfully as " + u.Nickname}, "registration succeeded", nil)
}
