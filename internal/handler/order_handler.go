package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fraud-screening/internal/models"
	"fraud-screening/internal/repository"
	"fraud-screening/internal/service"
)

// ChecksumHeader carries the device-validation checksum collected by the
// storefront agent script.
const ChecksumHeader = "X-FLP-Checksum"

type OrderHandler struct {
	screening *service.ScreeningService
	factory   *service.OrderModelFactory
	orders    service.OrderStore
	logger    *zap.Logger
}

func NewOrderHandler(screening *service.ScreeningService, factory *service.OrderModelFactory, orders service.OrderStore, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		screening: screening,
		factory:   factory,
		orders:    orders,
		logger:    logger,
	}
}

type feedbackRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
}

type hidePanelRequest struct {
	CustomerID int64 `json:"customer_id" binding:"required"`
	Hide       bool  `json:"hide"`
}

// ScreenOrder triggers a fraud screening for one order.
func (h *OrderHandler) ScreenOrder(c *gin.Context) {
	order, ok := h.loadOrder(c)
	if !ok {
		return
	}

	result, err := h.screening.ScreenOrder(c.Request.Context(), order, c.GetHeader(ChecksumHeader))
	if err != nil {
		h.respondScreeningError(c, err)
		return
	}
	if result.Err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"result": false, "error": "screening provider rejected the request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": true, "status": result.Status, "score": result.Score})
}

// ApproveOrder reports an APPROVE decision for a screened transaction.
func (h *OrderHandler) ApproveOrder(c *gin.Context) {
	h.feedback(c, models.StatusApprove)
}

// RejectOrder reports a REJECT decision for a screened transaction.
func (h *OrderHandler) RejectOrder(c *gin.Context) {
	h.feedback(c, models.StatusReject)
}

// BlacklistOrder rejects a transaction and blacklists the customer with the
// provider.
func (h *OrderHandler) BlacklistOrder(c *gin.Context) {
	h.feedback(c, models.StatusRejectBlacklist)
}

func (h *OrderHandler) feedback(c *gin.Context, action string) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transaction_id is required"})
		return
	}

	result, err := h.screening.OrderFeedback(c.Request.Context(), orderID, req.TransactionID, action)
	if err != nil {
		h.respondScreeningError(c, err)
		return
	}
	if result.ID == "" || result.Err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"result": false, "error": "feedback was not confirmed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": true})
}

// GetFraudPanel returns the stored assessment as a display model for the
// admin order page.
func (h *OrderHandler) GetFraudPanel(c *gin.Context) {
	order, ok := h.loadOrder(c)
	if !ok {
		return
	}

	viewerID, _ := strconv.ParseInt(c.Query("viewer_id"), 10, 64)

	model, err := h.factory.PrepareOrderModel(c.Request.Context(), order, viewerID)
	if err != nil {
		h.logger.Error("failed to prepare fraud panel model", zap.Error(err), zap.Int64("order_id", order.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load fraud panel"})
		return
	}

	c.JSON(http.StatusOK, model)
}

// HidePanel stores the per-customer preference that hides the fraud panel.
func (h *OrderHandler) HidePanel(c *gin.Context) {
	var req hidePanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id is required"})
		return
	}

	if err := h.factory.SetHideBlock(c.Request.Context(), req.CustomerID, req.Hide); err != nil {
		h.logger.Error("failed to save hide-panel preference", zap.Error(err), zap.Int64("customer_id", req.CustomerID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save preference"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": true})
}

func (h *OrderHandler) orderID(c *gin.Context) (int64, bool) {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return 0, false
	}
	return orderID, true
}

func (h *OrderHandler) loadOrder(c *gin.Context) (*models.Order, bool) {
	orderID, ok := h.orderID(c)
	if !ok {
		return nil, false
	}

	order, err := h.orders.GetByID(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return nil, false
		}
		h.logger.Error("failed to load order", zap.Error(err), zap.Int64("order_id", orderID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return nil, false
	}
	return order, true
}

// respondScreeningError maps workflow errors to responses without leaking
// provider detail to the caller.
func (h *OrderHandler) respondScreeningError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotConfigured):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"result": false, "error": "fraud screening is not configured"})
	case errors.Is(err, service.ErrCustomerNotFound):
		c.JSON(http.StatusConflict, gin.H{"result": false, "error": "order customer not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"result": false, "error": "screening failed"})
	}
}
