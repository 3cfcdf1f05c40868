// Package http 购物车 HTTP 接口层
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/internal/cart/application"
	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// CartHandler 负责处理购物车相关的 HTTP 请求
type CartHandler struct {
	app        *application.CartService
	settings   domain.SettingsRepository
	cleanupJob *application.ExpiryCleanupJob
	warningJob *application.ExpiryWarningJob
}

// NewCartHandler 创建 HTTP 处理器实例
func NewCartHandler(
	app *application.CartService,
	settings domain.SettingsRepository,
	cleanupJob *application.ExpiryCleanupJob,
	warningJob *application.ExpiryWarningJob,
) *CartHandler {
	return &CartHandler{
		app:        app,
		settings:   settings,
		cleanupJob: cleanupJob,
		warningJob: warningJob,
	}
}

// RegisterRoutes 注册路由
func (h *CartHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/cart")
	{
		api.GET("", h.GetCart)
		api.POST("/items", h.AddItem)
		api.PUT("/items/:product_id", h.UpdateItem)
		api.DELETE("/items/:product_id", h.RemoveItem)
		api.DELETE("", h.ClearCart)
		api.POST("/merge", h.MergeGuestCart)
	}

	admin := router.Group("/api/v1/admin/cart")
	{
		admin.GET("/settings", h.GetSettings)
		admin.PUT("/settings", h.UpdateSettings)
		admin.POST("/sweeps/cleanup", h.TriggerCleanup)
		admin.POST("/sweeps/warning", h.TriggerWarning)
	}
}

func ownerFromQuery(c *gin.Context) application.CartOwner {
	return application.CartOwner{
		UserID:     c.Query("user_id"),
		GuestToken: c.Query("guest_token"),
	}
}

// GetCart 查询购物车
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.app.GetCart(c.Request.Context(), ownerFromQuery(c))
	if errors.Is(err, application.ErrInvalidOwner) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get cart", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItemRequest 加入商品请求
type AddItemRequest struct {
	UserID     string `json:"user_id"`
	GuestToken string `json:"guest_token"`
	ProductID  string `json:"product_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice  string `json:"unit_price" binding:"required"`
}

// AddItem 加入商品
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil || unitPrice.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unit_price"})
		return
	}

	owner := application.CartOwner{UserID: req.UserID, GuestToken: req.GuestToken}
	cart, err := h.app.AddItem(c.Request.Context(), owner, req.ProductID, req.Quantity, unitPrice)
	if errors.Is(err, application.ErrInvalidOwner) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to add cart item", "product_id", req.ProductID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// UpdateItemRequest 修改数量请求
type UpdateItemRequest struct {
	UserID     string `json:"user_id"`
	GuestToken string `json:"guest_token"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
}

// UpdateItem 修改商品数量
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner := application.CartOwner{UserID: req.UserID, GuestToken: req.GuestToken}
	cart, err := h.app.UpdateItemQuantity(c.Request.Context(), owner, c.Param("product_id"), req.Quantity)
	if err != nil {
		h.writeCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem 移除商品
func (h *CartHandler) RemoveItem(c *gin.Context) {
	cart, err := h.app.RemoveItem(c.Request.Context(), ownerFromQuery(c), c.Param("product_id"))
	if err != nil {
		h.writeCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// ClearCart 清空购物车
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.app.ClearCart(c.Request.Context(), ownerFromQuery(c)); err != nil {
		h.writeCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// MergeRequest 合并游客购物车请求
type MergeRequest struct {
	GuestToken string `json:"guest_token" binding:"required"`
	UserID     string `json:"user_id" binding:"required"`
}

// MergeGuestCart 合并游客购物车
func (h *CartHandler) MergeGuestCart(c *gin.Context) {
	var req MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cart, err := h.app.MergeGuestCart(c.Request.Context(), req.GuestToken, req.UserID)
	if err != nil {
		h.writeCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// GetSettings 读取购物车设置
func (h *CartHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Load(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to load cart settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettingsRequest 修改购物车设置请求
type UpdateSettingsRequest struct {
	CartExpirationDays   int    `json:"cart_expiration_days" binding:"min=0"`
	ExpiryWarningEnabled bool   `json:"expiry_warning_enabled"`
	ExpiryWarningMinutes int    `json:"expiry_warning_minutes" binding:"min=1"`
	NotificationType     string `json:"notification_type" binding:"required,oneof=email sms both"`
}

// UpdateSettings 修改购物车设置
func (h *CartHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.settings.Load(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to load cart settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	settings.CartExpirationDays = req.CartExpirationDays
	settings.ExpiryWarningEnabled = req.ExpiryWarningEnabled
	settings.ExpiryWarningMinutes = req.ExpiryWarningMinutes
	settings.NotificationType = domain.NotificationChannel(req.NotificationType)

	if settings.WarningWindowExceedsLifetime() {
		logger.Warn(c.Request.Context(), "Warning window is not shorter than cart lifetime, warnings will fire immediately",
			"warning_minutes", settings.ExpiryWarningMinutes,
			"expiration_days", settings.CartExpirationDays,
		)
	}

	if err := h.settings.Save(c.Request.Context(), settings); err != nil {
		logger.Error(c.Request.Context(), "Failed to save cart settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// TriggerCleanup 手动触发一轮清理扫描
func (h *CartHandler) TriggerCleanup(c *gin.Context) {
	summary, err := h.cleanupJob.RunOnce(c.Request.Context())
	if errors.Is(err, application.ErrSweepRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "Manual cleanup sweep failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// TriggerWarning 手动触发一轮提醒扫描
func (h *CartHandler) TriggerWarning(c *gin.Context) {
	summary, err := h.warningJob.RunOnce(c.Request.Context())
	if errors.Is(err, application.ErrSweepRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "Manual warning sweep failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *CartHandler) writeCartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrInvalidOwner):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, application.ErrItemNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logger.Error(c.Request.Context(), "Cart operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
