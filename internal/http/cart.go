package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ringside/internal/domain"
	"ringside/internal/service"
)

// @Summary Get cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.CartItem
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	items, err := s.Cart.Items(c, identity(c).UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Clear cart
// @Tags cart
// @Security BearerAuth
// @Success 204
// @Router /cart [delete]
func (s *Server) clearCart(c *gin.Context) {
	if err := s.Cart.Clear(c, identity(c).UserID); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Cart total
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /cart/total [get]
func (s *Server) cartTotal(c *gin.Context) {
	total, err := s.Cart.Total(c, identity(c).UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

// @Summary Add item to cart
// @Description Merges quantity into an existing line with the same id and size.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body domain.CartItem true "Item"
// @Success 200 {array} domain.CartItem
// @Failure 400 {object} map[string]string
// @Router /cart/items [post]
func (s *Server) addCartItem(c *gin.Context) {
	var item domain.CartItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	items, err := s.Cart.Add(c, identity(c).UserID, item)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

type updateQuantityReq struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// @Summary Change line quantity
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param input body updateQuantityReq true "Size and quantity"
// @Success 200 {array} domain.CartItem
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /cart/items/{id} [patch]
func (s *Server) updateCartItem(c *gin.Context) {
	var req updateQuantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	items, err := s.Cart.UpdateQuantity(c, identity(c).UserID, c.Param("id"), req.Size, req.Quantity)
	if errors.Is(err, service.ErrInvalidQuantity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "items": items})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Remove line
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param size query string false "Size"
// @Success 200 {array} domain.CartItem
// @Router /cart/items/{id} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	items, err := s.Cart.Remove(c, identity(c).UserID, c.Param("id"), c.Query("size"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Customizer options
// @Tags customizer
// @Produce json
// @Success 200 {object} service.CustomizerOptions
// @Router /customizer/options [get]
func (s *Server) customizerOptions(c *gin.Context) {
	c.JSON(http.StatusOK, s.Customizer.Options())
}

// @Summary Add customized product to cart
// @Tags customizer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.Customization true "Selection"
// @Success 200 {array} domain.CartItem
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]any
// @Router /customizer/cart [post]
func (s *Server) addCustomized(c *gin.Context) {
	var req service.Customization
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	items, err := s.Customizer.AddToCart(c, identity(c).UserID, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
