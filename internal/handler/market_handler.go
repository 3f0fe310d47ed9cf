package handler

import (
	"net/http"

	"fs25hub/internal/middleware"
	"fs25hub/internal/service"
	"fs25hub/pkg/pagination"
	"fs25hub/pkg/response"

	"github.com/gin-gonic/gin"
)

type MarketHandler struct {
	marketService service.MarketService
	ledgerService service.LedgerService
}

func NewMarketHandler(marketService service.MarketService, ledgerService service.LedgerService) *MarketHandler {
	return &MarketHandler{marketService: marketService, ledgerService: ledgerService}
}

func (h *MarketHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		// The marketplace listing itself is public.
		api.GET("/market", h.ListMarketplace)

		authed := api.Group("", middleware.RequireAuth())
		{
			authed.GET("/products/mine", h.ListMine)
			authed.POST("/products", h.CreateListing)
			authed.PUT("/products/:id", h.UpdateListing)
			authed.POST("/products/:id/activate", h.Activate)
			authed.POST("/products/:id/deactivate", h.Deactivate)
			authed.POST("/products/:id/purchase", h.Purchase)
			authed.GET("/orders", h.ListOrders)
			authed.GET("/bank/statement", h.Statement)
		}
	}
}

// ListMarketplace returns active listings
// @Summary      Browse marketplace
// @Tags         market
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by product name"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/market [get]
func (h *MarketHandler) ListMarketplace(c *gin.Context) {
	p := pagination.Parse(c)
	search := c.Query("search")

	products, total, err := h.marketService.ListMarketplace(c.Request.Context(), p.Page, p.Limit, search)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
		"page":     p.Page,
		"limit":    p.Limit,
	}))
}

// ListMine returns the caller's listings, active or not
// @Summary      My listings
// @Tags         market
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Product}
// @Router       /api/products/mine [get]
func (h *MarketHandler) ListMine(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	products, err := h.marketService.ListMine(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, products))
}

// CreateListing posts a product to the marketplace
// @Summary      Create listing
// @Tags         market
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Router       /api/products [post]
func (h *MarketHandler) CreateListing(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.marketService.CreateListing(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateListing edits a listing owned by the caller (or a moderator)
// @Summary      Update listing
// @Tags         market
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Update Product Payload"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      403      {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *MarketHandler) UpdateListing(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.marketService.UpdateListing(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// Activate republishes a listing
// @Summary      Activate listing
// @Tags         market
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Product ID"
// @Success      200  {object}  response.Response{data=model.Product}
// @Router       /api/products/{id}/activate [post]
func (h *MarketHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate pulls a listing from the marketplace
// @Summary      Deactivate listing
// @Tags         market
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Product ID"
// @Success      200  {object}  response.Response{data=model.Product}
// @Router       /api/products/{id}/deactivate [post]
func (h *MarketHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *MarketHandler) setActive(c *gin.Context, active bool) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	product, err := h.marketService.SetListingActive(c.Request.Context(), actor, id, active)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// Purchase buys one unit of a product
// @Summary      Purchase product
// @Description  Buys one unit: decrements stock, debits the buyer, credits the seller and writes both ledger entries atomically
// @Tags         market
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Product ID"
// @Success      201  {object}  response.Response{data=model.ProductOrder}
// @Failure      402  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/products/{id}/purchase [post]
func (h *MarketHandler) Purchase(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.marketService.Purchase(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders returns the caller's order history
// @Summary      My orders
// @Tags         market
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default 1)"
// @Param        limit  query  int  false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/orders [get]
func (h *MarketHandler) ListOrders(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	orders, total, err := h.marketService.ListOrders(c.Request.Context(), actor, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   p.Page,
		"limit":  p.Limit,
	}))
}

// Statement returns the caller's transaction history, newest first
// @Summary      Bank statement
// @Tags         bank
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default 1)"
// @Param        limit  query  int  false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/bank/statement [get]
func (h *MarketHandler) Statement(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	transactions, total, err := h.ledgerService.Statement(c.Request.Context(), actor.ID, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"total":        total,
		"page":         p.Page,
		"limit":        p.Limit,
	}))
}
