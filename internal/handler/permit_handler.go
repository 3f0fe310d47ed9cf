package handler

import (
	"net/http"

	"fs25hub/internal/middleware"
	"fs25hub/internal/service"
	"fs25hub/pkg/response"

	"github.com/gin-gonic/gin"
)

type PermitHandler struct {
	permitService service.PermitService
}

func NewPermitHandler(permitService service.PermitService) *PermitHandler {
	return &PermitHandler{permitService: permitService}
}

func (h *PermitHandler) RegisterRoutes(router *gin.RouterGroup) {
	permits := router.Group("/api/permits", middleware.RequireAuth())
	{
		permits.GET("/mine", h.ListMine)
		permits.POST("", h.Request)
		permits.GET("/pending", h.ListPending)
		permits.POST("/:id/review", h.Review)
	}
}

// Request files a permit request
// @Summary      Request permit
// @Tags         permits
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RequestPermitRequest  true  "Permit Payload"
// @Success      201      {object}  response.Response{data=model.Permit}
// @Failure      400      {object}  response.Response
// @Router       /api/permits [post]
func (h *PermitHandler) Request(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req service.RequestPermitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	permit, err := h.permitService.Request(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, permit))
}

// ListMine returns the caller's permit requests
// @Summary      My permits
// @Tags         permits
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Permit}
// @Router       /api/permits/mine [get]
func (h *PermitHandler) ListMine(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	permits, err := h.permitService.ListMine(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, permits))
}

// ListPending lists permits awaiting review (supervisors)
// @Summary      Pending permits
// @Tags         permits
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Permit}
// @Failure      403  {object}  response.Response
// @Router       /api/permits/pending [get]
func (h *PermitHandler) ListPending(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	permits, err := h.permitService.ListPending(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, permits))
}

// Review approves or rejects a pending permit
// @Summary      Review permit
// @Description  Approval stamps the issue date; either decision is final
// @Tags         permits
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Permit ID"
// @Param        payload  body      service.ReviewPermitRequest  true  "Review Payload"
// @Success      200      {object}  response.Response{data=model.Permit}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/permits/{id}/review [post]
func (h *PermitHandler) Review(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.ReviewPermitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	permit, err := h.permitService.Review(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, permit))
}
