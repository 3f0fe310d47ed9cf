package handler

import (
	"net/http"

	"fs25hub/internal/middleware"
	"fs25hub/internal/service"
	"fs25hub/pkg/pagination"
	"fs25hub/pkg/response"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/api/admin", middleware.RequireAuth())
	{
		admin.GET("/users", h.ListUsers)
		admin.POST("/users/:id/promote", h.Promote)
		admin.POST("/users/:id/company", h.AssignCompany)
		admin.GET("/companies", h.ListCompanies)
		admin.POST("/companies", h.CreateCompany)
		admin.GET("/audit", h.AuditTrail)
	}
}

// ListUsers returns all accounts (supervisors)
// @Summary      List users
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default 1)"
// @Param        limit  query  int  false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      403  {object}  response.Response
// @Router       /api/admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	users, total, err := h.adminService.ListUsers(c.Request.Context(), actor, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"users": users,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

// Promote changes a user's role (admins)
// @Summary      Promote user
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "User ID"
// @Param        payload  body      service.PromoteUserRequest  true  "Promote Payload"
// @Success      200      {object}  response.Response{data=model.User}
// @Failure      403      {object}  response.Response
// @Router       /api/admin/users/{id}/promote [post]
func (h *AdminHandler) Promote(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.PromoteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.adminService.Promote(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// AssignCompany sets or clears a user's company (admins)
// @Summary      Assign company
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "User ID"
// @Param        payload  body      service.AssignCompanyRequest  true  "Assign Payload"
// @Success      200      {object}  response.Response{data=model.User}
// @Failure      403      {object}  response.Response
// @Router       /api/admin/users/{id}/company [post]
func (h *AdminHandler) AssignCompany(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.AssignCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.adminService.AssignCompany(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// CreateCompany registers a company (admins)
// @Summary      Create company
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCompanyRequest  true  "Company Payload"
// @Success      201      {object}  response.Response{data=model.Company}
// @Failure      409      {object}  response.Response
// @Router       /api/admin/companies [post]
func (h *AdminHandler) CreateCompany(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req service.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	company, err := h.adminService.CreateCompany(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, company))
}

// ListCompanies lists registered companies
// @Summary      List companies
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Company}
// @Router       /api/admin/companies [get]
func (h *AdminHandler) ListCompanies(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	companies, err := h.adminService.ListCompanies(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, companies))
}

// AuditTrail returns the audit log, newest first (supervisors)
// @Summary      Audit trail
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default 1)"
// @Param        limit  query  int  false  "Number of items per page (default 50)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      403  {object}  response.Response
// @Router       /api/admin/audit [get]
func (h *AdminHandler) AuditTrail(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	logs, total, err := h.adminService.AuditTrail(c.Request.Context(), actor, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}
