package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ringside/internal/service"
)

// @Summary Place order
// @Description Validates the form, snapshots the cart into a pending order and clears the cart.
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.CheckoutRequest true "Checkout form"
// @Success 201 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]any
// @Router /checkout [post]
func (s *Server) checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.Checkout.Checkout(c.Request.Context(), identity(c).UserID, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// @Summary Order history
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Order
// @Router /orders [get]
func (s *Server) myOrders(c *gin.Context) {
	list, err := s.Orders.Orders(c, identity(c).UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Latest order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Order
// @Failure 404 {object} map[string]string
// @Router /orders/latest [get]
func (s *Server) latestOrder(c *gin.Context) {
	o, err := s.Orders.LatestOrder(c, identity(c).UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
