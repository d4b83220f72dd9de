package routes

import (
	"net/http"

	"github.com/Jacob59569/Fast-Api-Stripe/common/middleware"
	"github.com/Jacob59569/Fast-Api-Stripe/controllers"
	"github.com/Jacob59569/Fast-Api-Stripe/services"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every endpoint. rl may be nil to disable rate limiting.
func RegisterRoutes(r *gin.Engine, pc *controllers.PaymentController, cc *controllers.CartController, rl *middleware.RateLimiter) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": services.ServiceName, "message": "Stripe checkout service"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": services.ServiceName})
	})

	// Stripe webhook (signature-verified, not rate limited)
	r.POST("/webhook", pc.StripeWebhook)

	api := r.Group("")
	if rl != nil {
		api.Use(middleware.RateLimitMiddleware(rl))
	}
	api.POST("/create-checkout-session", pc.CreateCheckoutSession)
	api.GET("/payments", pc.ListPayments)
	api.GET("/payments_html", pc.ListPaymentsHTML)

	cart := api.Group("/cart")
	cart.Use(middleware.AuthMiddleware())
	{
		cart.GET("", cc.GetCart)
		cart.POST("/add", cc.AddItem)
		cart.DELETE("/clear", cc.ClearCart)
		cart.POST("/checkout", cc.Checkout)
	}
}
