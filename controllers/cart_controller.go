package controllers

import (
	"net/http"

	apperrors "github.com/Jacob59569/Fast-Api-Stripe/common/errors"
	"github.com/Jacob59569/Fast-Api-Stripe/common/logger"
	"github.com/Jacob59569/Fast-Api-Stripe/common/middleware"
	"github.com/Jacob59569/Fast-Api-Stripe/models"
	aws_pkg "github.com/Jacob59569/Fast-Api-Stripe/pkg/aws"
	"github.com/Jacob59569/Fast-Api-Stripe/repository"
	"github.com/Jacob59569/Fast-Api-Stripe/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CartController struct {
	repo     repository.CartRepository
	checkout services.CheckoutService
	metrics  *aws_pkg.MetricsClient
	logger   *zap.Logger
}

func NewCartController(repo repository.CartRepository, checkout services.CheckoutService, metrics *aws_pkg.MetricsClient, logger *zap.Logger) *CartController {
	return &CartController{
		repo:     repo,
		checkout: checkout,
		metrics:  metrics,
		logger:   logger,
	}
}

type cartResponse struct {
	*models.Cart
	Total int64 `json:"total"` // minor units
}

func newCartResponse(cart *models.Cart) cartResponse {
	return cartResponse{Cart: cart, Total: cart.Total()}
}

// GetCart returns the current cart for a user
func (cc *CartController) GetCart(c *gin.Context) {
	userID := middleware.GetUserID(c)

	cart, err := cc.repo.GetCart(c.Request.Context(), userID)
	if err != nil {
		cc.log(c).Error("Failed to get cart", zap.String("user_id", userID), zap.Error(err))
		_ = c.Error(apperrors.ErrDatabaseQuery.Wrap(err))
		return
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID, Items: []models.LineItem{}}
	}

	c.JSON(http.StatusOK, newCartResponse(cart))
}

// AddItem merges an item into the cart
func (cc *CartController) AddItem(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var item models.LineItem
	if err := c.ShouldBindJSON(&item); err != nil {
		_ = c.Error(apperrors.ErrInvalidInput.Wrap(err))
		return
	}

	ctx := c.Request.Context()
	cart, err := cc.repo.GetCart(ctx, userID)
	if err != nil {
		cc.log(c).Error("Failed to get cart", zap.String("user_id", userID), zap.Error(err))
		_ = c.Error(apperrors.ErrDatabaseQuery.Wrap(err))
		return
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID}
	}
	cart.Add(item)

	if err := cc.repo.SaveCart(ctx, cart); err != nil {
		cc.log(c).Error("Failed to save cart", zap.String("user_id", userID), zap.Error(err))
		_ = c.Error(apperrors.ErrDatabaseQuery.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, newCartResponse(cart))
}

// ClearCart removes all items from the cart
func (cc *CartController) ClearCart(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if err := cc.repo.DeleteCart(c.Request.Context(), userID); err != nil {
		cc.log(c).Error("Failed to clear cart", zap.String("user_id", userID), zap.Error(err))
		_ = c.Error(apperrors.ErrDatabaseQuery.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}

// Checkout turns the cart into a hosted checkout session. The cart is only
// cleared once the session exists.
func (cc *CartController) Checkout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	ctx := c.Request.Context()

	cart, err := cc.repo.GetCart(ctx, userID)
	if err != nil {
		cc.log(c).Error("Failed to get cart", zap.String("user_id", userID), zap.Error(err))
		_ = c.Error(apperrors.ErrDatabaseQuery.Wrap(err))
		return
	}
	if cart == nil || len(cart.Items) == 0 {
		_ = c.Error(apperrors.ErrEmptyCart)
		return
	}

	sess, err := cc.checkout.CreateCheckoutSession(ctx, cart.Items, map[string]string{"user_id": userID})
	if err != nil {
		_ = c.Error(err)
		return
	}

	cc.log(c).Info("Cart checked out",
		zap.String("user_id", userID),
		zap.String("session_id", sess.ID),
		zap.Int64("total", cart.Total()),
	)
	if err := cc.repo.DeleteCart(ctx, userID); err != nil {
		cc.log(c).Warn("Failed to clear cart after checkout", zap.String("user_id", userID), zap.Error(err))
	}
	_ = cc.metrics.RecordCount(ctx, aws_pkg.MetricCartCheckouts, map[string]string{"Service": services.ServiceName})

	c.JSON(http.StatusOK, models.CheckoutSessionResponse{CheckoutURL: sess.URL})
}

func (cc *CartController) log(c *gin.Context) *zap.Logger {
	return logger.FromContext(c.Request.Context(), cc.logger)
}
