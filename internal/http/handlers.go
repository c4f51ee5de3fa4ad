package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"ringside/internal/auth"
	"ringside/internal/content"
	"ringside/internal/delivery"
	"ringside/internal/mailer"
	"ringside/internal/repository"
	"ringside/internal/service"
)

// Newsletter sends the sign-up mail.
type Newsletter interface {
	Send(ctx context.Context, email, name string) error
}

// Deps are the collaborators the HTTP surface dispatches to.
type Deps struct {
	Catalog     *service.CatalogService
	Cart        *service.CartService
	Checkout    *service.CheckoutService
	Orders      *service.OrderService
	Products    *service.ProductService
	Customizer  *service.CustomizerService
	Newsletter  Newsletter
	Verifier    *auth.Verifier
	Feed        *OrderFeed
	CORSOrigins []string
	Log         *zap.Logger
}

type Server struct {
	engine *gin.Engine
	Deps
}

func NewServer(d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := gin.New()
	r.Use(requestLogger(d.Log), gin.Recovery())
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	s := &Server{engine: r, Deps: d}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/health", s.health)

		catalog := v1.Group("/catalog")
		catalog.GET("/products", s.listProducts)
		catalog.GET("/products/:id", s.getProduct)
		catalog.GET("/categories", s.listCategories)
		catalog.GET("/facets", s.facets)

		v1.GET("/shipping-methods", s.shippingMethods)
		v1.GET("/delivery-points", s.deliveryPoints)
		v1.GET("/customizer/options", s.customizerOptions)
		v1.POST("/newsletter", s.subscribe)

		user := v1.Group("", s.requireAuth)
		user.GET("/me", s.me)
		user.GET("/cart", s.getCart)
		user.DELETE("/cart", s.clearCart)
		user.GET("/cart/total", s.cartTotal)
		user.POST("/cart/items", s.addCartItem)
		user.PATCH("/cart/items/:id", s.updateCartItem)
		user.DELETE("/cart/items/:id", s.removeCartItem)
		user.POST("/customizer/cart", s.addCustomized)
		user.POST("/checkout", s.checkout)
		user.GET("/orders", s.myOrders)
		user.GET("/orders/latest", s.latestOrder)
		user.POST("/session/logout", s.logout)

		admin := v1.Group("/admin", s.requireAuth, s.requireAdmin)
		admin.GET("/products", s.adminListProducts)
		admin.POST("/products", s.adminCreateProduct)
		admin.GET("/products/:id", s.adminGetProduct)
		admin.PUT("/products/:id", s.adminUpdateProduct)
		admin.DELETE("/products/:id", s.adminDeleteProduct)
		admin.GET("/orders", s.adminListOrders)
		admin.GET("/orders/export", s.adminExportOrders)
		admin.GET("/orders/feed", s.adminOrderFeed)
		admin.GET("/orders/:id", s.adminGetOrder)
		admin.PATCH("/orders/:id/status", s.adminUpdateStatus)
	}
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary List catalog products
// @Tags catalog
// @Produce json
// @Param q query string false "Name or category contains"
// @Param category query []string false "Categories" collectionFormat(multi)
// @Param color query []string false "Colors" collectionFormat(multi)
// @Param min_price query number false "Min price"
// @Param max_price query number false "Max price"
// @Param on_sale query bool false "Only discounted"
// @Success 200 {array} domain.Product
// @Failure 502 {object} map[string]string
// @Router /catalog/products [get]
func (s *Server) listProducts(c *gin.Context) {
	f := service.Filter{
		Search:     c.Query("q"),
		Categories: multiQuery(c, "category"),
		Colors:     multiQuery(c, "color"),
	}
	if v := c.Query("min_price"); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinPrice = &x
		}
	}
	if v := c.Query("max_price"); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = &x
		}
	}
	f.OnSale, _ = strconv.ParseBool(c.Query("on_sale"))

	list, err := s.Catalog.List(c, f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get catalog product by id or slug
// @Tags catalog
// @Produce json
// @Param id path string true "Product ID or slug"
// @Success 200 {object} domain.Product
// @Failure 404 {object} map[string]string
// @Router /catalog/products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	p, err := s.Catalog.Product(c, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary List categories
// @Tags catalog
// @Produce json
// @Success 200 {array} domain.Category
// @Router /catalog/categories [get]
func (s *Server) listCategories(c *gin.Context) {
	cats, err := s.Catalog.Categories(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

// @Summary Filter facets
// @Tags catalog
// @Produce json
// @Success 200 {object} service.Facets
// @Router /catalog/facets [get]
func (s *Server) facets(c *gin.Context) {
	f, err := s.Catalog.Facets(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// @Summary Shipping methods
// @Tags checkout
// @Produce json
// @Success 200 {array} domain.ShippingMethod
// @Router /shipping-methods [get]
func (s *Server) shippingMethods(c *gin.Context) {
	c.JSON(http.StatusOK, delivery.ShippingMethods())
}

// @Summary Pickup delivery points
// @Tags checkout
// @Produce json
// @Success 200 {array} domain.DeliveryPoint
// @Router /delivery-points [get]
func (s *Server) deliveryPoints(c *gin.Context) {
	c.JSON(http.StatusOK, delivery.DeliveryPoints())
}

type newsletterReq struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}

// @Summary Newsletter sign-up
// @Tags marketing
// @Accept json
// @Produce json
// @Param input body newsletterReq true "Subscriber"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /newsletter [post]
func (s *Server) subscribe(c *gin.Context) {
	var req newsletterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
		return
	}
	if err := s.Newsletter.Send(c, req.Email, req.Name); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Current identity
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.Identity
// @Failure 401 {object} map[string]string
// @Router /me [get]
func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, identity(c))
}

// @Summary Log out
// @Description Clears the caller's cart.
// @Tags session
// @Security BearerAuth
// @Success 204
// @Router /session/logout [post]
func (s *Server) logout(c *gin.Context) {
	if err := s.Cart.Clear(c, identity(c).UserID); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// multiQuery accepts both repeated and comma-separated values.
func multiQuery(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *Server) fail(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	body := gin.H{"error": err.Error()}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body["error"] = "validation failed"
		body["fields"] = verr.Fields
	}
	if status >= http.StatusInternalServerError {
		s.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

func mapErrorToStatus(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, content.ErrUnavailable), errors.Is(err, mailer.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
