// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/domain/analytics"
	"github.com/your-org/cafe-storefront/internal/domain/cart"
	"github.com/your-org/cafe-storefront/internal/domain/order"
	"github.com/your-org/cafe-storefront/internal/domain/product"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/domain/session"
	"github.com/your-org/cafe-storefront/internal/domain/user"
	"github.com/your-org/cafe-storefront/internal/interfaces/http/handlers"
	"github.com/your-org/cafe-storefront/internal/pkg/auth"
)

// Services are the domain services the HTTP surface exposes
type Services struct {
	Products  *product.Service
	Carts     *cart.Service
	Orders    *order.Service
	Users     *user.Service
	Profiles  *profile.Service
	Analytics *analytics.Service
	Resolver  *session.Resolver
	JWT       *auth.JWTManager
}

// SetupRoutes registers every API route on rg. Access rules are enforced by
// the session gate installed in front of rg.
func SetupRoutes(rg *gin.RouterGroup, svc Services, cfg *config.Config, log *logrus.Logger) {
	SetupAuthRoutes(rg, svc, cfg, log)
	SetupProductRoutes(rg, svc)
	SetupCartRoutes(rg, svc, cfg)
	SetupCheckoutRoutes(rg, svc, cfg, log)
	SetupOrderRoutes(rg, svc, log)
	SetupProfileRoutes(rg, svc)
	SetupAdminRoutes(rg, svc, log)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, svc Services, cfg *config.Config, log *logrus.Logger) {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Carts, cfg, log)

	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/confirm", authHandler.ConfirmEmail)
		auth.POST("/resend-confirmation", authHandler.ResendConfirmation)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.POST("/logout", authHandler.Logout)
	}
}

// SetupProductRoutes sets up catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, svc Services) {
	productHandler := handlers.NewProductHandler(svc.Products)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/featured", productHandler.GetFeaturedProducts)
		products.GET("/categories", productHandler.GetCategories)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/:id/related", productHandler.GetRelatedProducts)
	}
}

// SetupCartRoutes sets up cart routes for guests and signed-in users
func SetupCartRoutes(rg *gin.RouterGroup, svc Services, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(svc.Carts, cfg)

	cartGroup := rg.Group("/cart")
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.DELETE("", cartHandler.ClearCart)
		cartGroup.GET("/count", cartHandler.GetCartCount)
		cartGroup.POST("/items", cartHandler.AddToCart)
		cartGroup.PUT("/items/:id", cartHandler.UpdateCartItem)
		cartGroup.DELETE("/items/:id", cartHandler.RemoveFromCart)
		cartGroup.POST("/merge", cartHandler.MergeGuestCart)
	}
}

// SetupCheckoutRoutes sets up the checkout page and order placement
func SetupCheckoutRoutes(rg *gin.RouterGroup, svc Services, cfg *config.Config, log *logrus.Logger) {
	checkoutHandler := handlers.NewCheckoutHandler(svc.Carts, svc.Orders, svc.Profiles, cfg, log)

	rg.GET("/checkout", checkoutHandler.GetCheckout)
	rg.POST("/checkout", checkoutHandler.CreateOrder)
}

// SetupOrderRoutes sets up the signed-in user's order routes
func SetupOrderRoutes(rg *gin.RouterGroup, svc Services, log *logrus.Logger) {
	orderHandler := handlers.NewOrderHandler(svc.Orders, svc.Profiles, log)

	orders := rg.Group("/orders")
	{
		orders.GET("", orderHandler.GetUserOrders)
		orders.GET("/:id", orderHandler.GetUserOrder)
		orders.GET("/:id/receipt", orderHandler.DownloadReceipt)
	}
}

// SetupProfileRoutes sets up the signed-in user's profile routes
func SetupProfileRoutes(rg *gin.RouterGroup, svc Services) {
	profileHandler := handlers.NewProfileHandler(svc.Profiles, svc.Users)

	profileGroup := rg.Group("/profile")
	{
		profileGroup.GET("", profileHandler.GetProfile)
		profileGroup.PUT("", profileHandler.UpdateProfile)
		profileGroup.POST("/avatar", profileHandler.UploadAvatar)
		profileGroup.PUT("/password", profileHandler.ChangePassword)
	}
}

// SetupAdminRoutes sets up back-office routes
func SetupAdminRoutes(rg *gin.RouterGroup, svc Services, log *logrus.Logger) {
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Analytics)
	orderHandler := handlers.NewOrderHandler(svc.Orders, svc.Profiles, log)
	userAdminHandler := handlers.NewUserAdminHandler(svc.Profiles)

	admin := rg.Group("/admin")
	{
		admin.GET("/dashboard", analyticsHandler.GetDashboard)

		admin.GET("/orders", orderHandler.ListOrders)
		admin.GET("/orders/:id", orderHandler.GetOrder)
		admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
		admin.PUT("/orders/:id/payment-status", orderHandler.UpdatePaymentStatus)

		admin.GET("/users", userAdminHandler.ListUsers)
		admin.PUT("/users/:id/role", userAdminHandler.UpdateUserRole)
	}
}
