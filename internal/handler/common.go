// Package handler wires the HTTP surface: request binding, the authenticated
// actor, and translation of service errors into API responses.
package handler

import (
	"errors"
	"log"
	"net/http"

	"fs25hub/internal/apperr"
	"fs25hub/internal/middleware"
	"fs25hub/internal/policy"
	"fs25hub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentActor pulls the authenticated actor set by RequireAuth. Routes
// behind the middleware always have one; the fallback guards miswiring.
func currentActor(c *gin.Context) (policy.Actor, bool) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
	}
	return actor, ok
}

// parseID reads a :id path parameter as a UUID.
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service error kinds to HTTP statuses. Unknown errors are
// logged and reported as a generic 500 so storage details never leak.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidState), errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Println("internal error:", err)
		c.JSON(status, response.Error(status, "Internal server error"))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}
