package handler

import (
	"net/http"

	"fs25hub/internal/middleware"
	"fs25hub/internal/repository"
	"fs25hub/internal/service"
	"fs25hub/pkg/pagination"
	"fs25hub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TicketHandler struct {
	ticketService service.TicketService
}

func NewTicketHandler(ticketService service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

func (h *TicketHandler) RegisterRoutes(router *gin.RouterGroup) {
	tickets := router.Group("/api/tickets", middleware.RequireAuth())
	{
		tickets.GET("/mine", h.ListMine)
		tickets.GET("", h.ListAll)
		tickets.POST("", h.Issue)
		tickets.GET("/:id", h.Get)
		tickets.POST("/:id/pay", h.Pay)
		tickets.POST("/:id/dispute", h.Dispute)
		tickets.POST("/:id/review", h.ReviewDispute)
		tickets.POST("/:id/items", h.AddItem)
	}
}

// Issue creates a ticket against a user
// @Summary      Issue ticket
// @Description  DOT staff issue a ticket; a zero fine records a warning instead of an unpaid ticket
// @Tags         tickets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.IssueTicketRequest  true  "Issue Ticket Payload"
// @Success      201      {object}  response.Response{data=model.Ticket}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/tickets [post]
func (h *TicketHandler) Issue(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req service.IssueTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ticket, err := h.ticketService.Issue(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ticket))
}

// Pay settles an unpaid ticket from the caller's balance
// @Summary      Pay ticket
// @Tags         tickets
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Ticket ID"
// @Success      200  {object}  response.Response{data=model.Ticket}
// @Failure      402  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/tickets/{id}/pay [post]
func (h *TicketHandler) Pay(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.ticketService.Pay(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ticket))
}

// Dispute contests a ticket
// @Summary      Dispute ticket
// @Tags         tickets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Ticket ID"
// @Param        payload  body      service.DisputeTicketRequest  true  "Dispute Payload"
// @Success      200      {object}  response.Response{data=model.Ticket}
// @Failure      409      {object}  response.Response
// @Router       /api/tickets/{id}/dispute [post]
func (h *TicketHandler) Dispute(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.DisputeTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ticket, err := h.ticketService.Dispute(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ticket))
}

// ReviewDispute resolves a pending dispute
// @Summary      Review dispute
// @Description  Approving zeroes the fine and resolves the ticket; rejecting reopens it for payment
// @Tags         tickets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true   "Ticket ID"
// @Param        approve  query     bool                          true   "Approve or reject"
// @Param        payload  body      service.ReviewDisputeRequest  false  "Review Payload"
// @Success      200      {object}  response.Response{data=model.Ticket}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/tickets/{id}/review [post]
func (h *TicketHandler) ReviewDispute(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	approve := c.Query("approve") == "true"
	var req service.ReviewDisputeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
			return
		}
	}

	ticket, err := h.ticketService.ReviewDispute(c.Request.Context(), actor, id, approve, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ticket))
}

// AddItem attaches a billable material line to a ticket
// @Summary      Add ticket item
// @Tags         tickets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Ticket ID"
// @Param        payload  body      service.AddTicketItemRequest  true  "Item Payload"
// @Success      200      {object}  response.Response{data=model.Ticket}
// @Failure      403      {object}  response.Response
// @Router       /api/tickets/{id}/items [post]
func (h *TicketHandler) AddItem(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.AddTicketItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ticket, err := h.ticketService.AddItem(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ticket))
}

// Get returns a single ticket
// @Summary      Get ticket
// @Tags         tickets
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Ticket ID"
// @Success      200  {object}  response.Response{data=model.Ticket}
// @Failure      404  {object}  response.Response
// @Router       /api/tickets/{id} [get]
func (h *TicketHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.ticketService.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ticket))
}

// ListMine returns tickets issued to the caller
// @Summary      My tickets
// @Tags         tickets
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Ticket}
// @Router       /api/tickets/mine [get]
func (h *TicketHandler) ListMine(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	tickets, err := h.ticketService.ListMine(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tickets))
}

// ListAll searches all tickets (DOT staff)
// @Summary      Search tickets
// @Tags         tickets
// @Security     BearerAuth
// @Produce      json
// @Param        page     query  int     false  "Page number (default 1)"
// @Param        limit    query  int     false  "Number of items per page (default 20)"
// @Param        status   query  string  false  "Filter by status"
// @Param        user_id  query  string  false  "Filter by recipient"
// @Param        search   query  string  false  "Search in reason"
// @Success      200  {object}  response.Response{data=object}
// @Failure      403  {object}  response.Response
// @Router       /api/tickets [get]
func (h *TicketHandler) ListAll(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	filter := repository.TicketFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   p.Page,
		Limit:  p.Limit,
	}
	if raw := c.Query("user_id"); raw != "" {
		uid, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid user_id"))
			return
		}
		filter.IssuedTo = &uid
	}

	tickets, total, err := h.ticketService.ListAll(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"tickets": tickets,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}
