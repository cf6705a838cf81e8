package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"riskdash/internal/coordinator"
	"riskdash/internal/middleware"
	"riskdash/internal/riskclient"
	"riskdash/internal/store"
	"riskdash/internal/workspace"

	"github.com/gin-gonic/gin"
)

// render writes data as JSON. nil becomes an empty object.
func render(c *gin.Context, status int, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, data)
}

func respondError(c *gin.Context, err error) {
	render(c, statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var se *riskclient.StatusError
	var ue *url.Error

	switch {
	case errors.Is(err, workspace.ErrModelNotLoaded),
		errors.Is(err, store.ErrUnknownControlSet),
		errors.Is(err, coordinator.ErrUnknownStrategy):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNotInError):
		return http.StatusConflict
	case errors.Is(err, coordinator.ErrNotAssertable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &se):
		if se.Code == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.As(err, &ue):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func registry(c *gin.Context) *workspace.Registry {
	return c.MustGet(middleware.WorkspaceKey).(*workspace.Registry)
}

// coord is set by middleware.RequireModel.
func coord(c *gin.Context) *coordinator.Coordinator {
	return c.MustGet(middleware.CoordinatorKey).(*coordinator.Coordinator)
}
