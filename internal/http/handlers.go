package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"boutique/internal/domain"
	"boutique/internal/repository"
	"boutique/internal/service"
)

type Server struct {
	engine    *gin.Engine
	catalog   *service.CatalogService
	cart      *service.CartService
	favorites *service.FavoritesService
	auth      *service.AuthService
	orders    *service.OrderService
	log       *slog.Logger
}

func NewServer(catalog *service.CatalogService, cart *service.CartService, favorites *service.FavoritesService, auth *service.AuthService, orders *service.OrderService, log *slog.Logger) *Server {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Session-Id"},
		ExposeHeaders:    []string{"X-Session-Id"},
		AllowCredentials: false,
	}))
	s := &Server{
		engine:    r,
		catalog:   catalog,
		cart:      cart,
		favorites: favorites,
		auth:      auth,
		orders:    orders,
		log:       log,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/products", s.listProducts)
		v1.GET("/products/:id", s.getProduct)
		v1.GET("/categories", s.listCategories)

		auth := v1.Group("/auth")
		auth.POST("/register", s.register)
		auth.POST("/login", s.login)
		auth.POST("/logout", s.authRequired, s.logout)
		auth.GET("/me", s.authRequired, s.me)
		auth.PUT("/profile", s.authRequired, s.updateProfile)

		cart := v1.Group("/cart", s.identity)
		cart.GET("", s.getCart)
		cart.POST("/items", s.addCartItem)
		cart.PUT("/items/:id", s.updateCartItem)
		cart.DELETE("/items/:id", s.removeCartItem)
		cart.DELETE("", s.clearCart)

		fav := v1.Group("/favorites", s.authRequired)
		fav.GET("", s.listFavorites)
		fav.POST("/:id/toggle", s.toggleFavorite)

		orders := v1.Group("/orders", s.authRequired)
		orders.POST("", s.checkout)
		orders.GET("", s.listOrders)
		orders.GET("/:id", s.getOrder)
		orders.POST("/:id/cancel", s.cancelOrder)
	}
}

// Catalog handlers

// @Summary List products with filters and sorting
// @Tags catalog
// @Produce json
// @Param q query string false "Search query"
// @Param category query []string false "Category (exact match, repeatable)"
// @Param color query []string false "Color (repeatable)"
// @Param size query []string false "Size (repeatable)"
// @Param min_price query number false "Min list price"
// @Param max_price query number false "Max list price"
// @Param sort query string false "featured | price-asc | price-desc | newest | best-selling"
// @Success 200 {array} domain.Product
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	f := service.FilterSet{
		Categories: c.QueryArray("category"),
		Colors:     c.QueryArray("color"),
		Sizes:      c.QueryArray("size"),
	}
	if v := c.Query("min_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			f.MinPrice = &d
		}
	}
	if v := c.Query("max_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			f.MaxPrice = &d
		}
	}
	list, err := s.catalog.Search(c, c.Query("q"), f, service.SortKey(c.Query("sort")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get product by id
// @Tags catalog
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	p, err := s.catalog.GetProduct(c, c.Param("id"))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary List categories
// @Tags catalog
// @Produce json
// @Success 200 {array} domain.Category
// @Router /categories [get]
func (s *Server) listCategories(c *gin.Context) {
	list, err := s.catalog.Categories(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// Auth handlers

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param input body registerReq true "Registration"
// @Success 201 {object} authResp
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, token, err := s.auth.Register(c, req.Name, req.Email, req.Password)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, authResp{Token: token, User: u})
}

// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} authResp
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, token, err := s.auth.Login(c, req.Email, req.Password)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, authResp{Token: token, User: u})
}

// @Summary Logout
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	// избранное выгружается из памяти, хранилище не трогаем
	s.favorites.Unload(c.GetString(ctxUserID))
	c.Status(http.StatusNoContent)
}

// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} map[string]string
// @Router /auth/me [get]
func (s *Server) me(c *gin.Context) {
	u, err := s.auth.GetUser(c, c.GetString(ctxUserID))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}

type updateProfileReq struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// @Summary Update profile
// @Tags auth
// @Accept json
// @Produce json
// @Param input body updateProfileReq true "Profile"
// @Success 200 {object} domain.User
// @Failure 400 {object} map[string]string
// @Router /auth/profile [put]
func (s *Server) updateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := s.auth.UpdateProfile(c, c.GetString(ctxUserID), req.Name, req.Phone)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}

// Cart handlers

// @Summary Get cart with summary
// @Tags cart
// @Produce json
// @Success 200 {object} service.CartSummary
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	sum, err := s.cart.Summary(c, c.GetString(ctxOwner))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

type addCartItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// @Summary Add item to cart
// @Tags cart
// @Accept json
// @Produce json
// @Param input body addCartItemReq true "Item"
// @Success 200 {object} service.CartSummary
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /cart/items [post]
func (s *Server) addCartItem(c *gin.Context) {
	var req addCartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	owner := c.GetString(ctxOwner)
	if err := s.cart.Add(c, owner, req.ProductID, req.Quantity, req.Size, req.Color); err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	s.respondCart(c, owner)
}

type updateCartItemReq struct {
	Quantity int64 `json:"quantity"`
}

// @Summary Set quantity for all lines of a product
// @Tags cart
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param input body updateCartItemReq true "Quantity; <= 0 removes"
// @Success 200 {object} service.CartSummary
// @Failure 400 {object} map[string]string
// @Router /cart/items/{id} [put]
func (s *Server) updateCartItem(c *gin.Context) {
	var req updateCartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	owner := c.GetString(ctxOwner)
	if err := s.cart.UpdateQuantity(c, owner, c.Param("id"), req.Quantity); err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	s.respondCart(c, owner)
}

// @Summary Remove all lines of a product
// @Tags cart
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} service.CartSummary
// @Router /cart/items/{id} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	owner := c.GetString(ctxOwner)
	if err := s.cart.Remove(c, owner, c.Param("id")); err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	s.respondCart(c, owner)
}

// @Summary Clear cart
// @Tags cart
// @Success 204
// @Router /cart [delete]
func (s *Server) clearCart(c *gin.Context) {
	if err := s.cart.Clear(c, c.GetString(ctxOwner)); err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) respondCart(c *gin.Context, owner string) {
	sum, err := s.cart.Summary(c, owner)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Favorites handlers

type favoritesResp struct {
	IDs      []string         `json:"ids"`
	Products []domain.Product `json:"products"`
}

// @Summary List favorites
// @Tags favorites
// @Produce json
// @Success 200 {object} favoritesResp
// @Failure 401 {object} map[string]string
// @Router /favorites [get]
func (s *Server) listFavorites(c *gin.Context) {
	ids := s.favorites.List(c, c.GetString(ctxUserID))
	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, err := s.catalog.GetProduct(c, id); err == nil {
			products = append(products, *p)
		}
	}
	c.JSON(http.StatusOK, favoritesResp{IDs: ids, Products: products})
}

// @Summary Toggle favorite
// @Tags favorites
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]bool
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /favorites/{id}/toggle [post]
func (s *Server) toggleFavorite(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	productID := c.Param("id")
	if _, err := s.catalog.GetProduct(c, productID); err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	s.favorites.Toggle(c, userID, productID)
	c.JSON(http.StatusOK, gin.H{"favorite": s.favorites.IsFavorite(c, userID, productID)})
}

// Order handlers

type checkoutReq struct {
	ShippingAddress domain.Address `json:"shipping_address"`
	PaymentMethod   string         `json:"payment_method"`
}

// @Summary Checkout current cart into an order
// @Tags orders
// @Accept json
// @Produce json
// @Param input body checkoutReq true "Checkout"
// @Success 201 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /orders [post]
func (s *Server) checkout(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.orders.Checkout(c, c.GetString(ctxUserID), req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, o)
}

// @Summary List my orders
// @Tags orders
// @Produce json
// @Success 200 {array} domain.Order
// @Failure 401 {object} map[string]string
// @Router /orders [get]
func (s *Server) listOrders(c *gin.Context) {
	list, err := s.orders.List(c, c.GetString(ctxUserID))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get my order by id
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	o, err := s.orders.Get(c, c.GetString(ctxUserID), c.Param("id"))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Cancel my order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/cancel [post]
func (s *Server) cancelOrder(c *gin.Context) {
	o, err := s.orders.Cancel(c, c.GetString(ctxUserID), c.Param("id"))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, o)
}

func mapErrorToStatus(err error) int {
	switch err {
	case service.ErrInvalidInput:
		return http.StatusBadRequest
	case service.ErrNotEnoughStock:
		return http.StatusBadRequest
	case service.ErrUnauthorized:
		return http.StatusUnauthorized
	case service.ErrEmailTaken:
		return http.StatusConflict
	case service.ErrInvalidState:
		return http.StatusConflict
	case repository.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
