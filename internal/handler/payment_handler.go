package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/UniNest-Housing/service-payment/internal/adapter"
	"github.com/UniNest-Housing/service-payment/internal/application"
	"github.com/UniNest-Housing/service-payment/internal/auth"
	"github.com/UniNest-Housing/service-payment/internal/domain/payment"
	"github.com/UniNest-Housing/service-payment/internal/middleware"
	"github.com/UniNest-Housing/service-payment/internal/monitoring"
	"github.com/UniNest-Housing/service-payment/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentHandler handles HTTP requests for payment operations.
type PaymentHandler struct {
	service   *application.PaymentService
	processor adapter.PaystackAdapter
	logger    *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *application.PaymentService, processor adapter.PaystackAdapter, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, processor: processor, logger: logger}
}

// RegisterRoutes registers all payment routes on the given router group.
// The webhook route carries no bearer auth; the signature header is its auth.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	r.POST("/payments/webhook", h.Webhook)

	payments := r.Group("/payments")
	payments.Use(middleware.AuthMiddleware(jwtManager))
	{
		payments.POST("", h.CreatePayment)
		payments.GET("", h.ListPayments)
		payments.GET("/:id", h.GetPayment)
		payments.POST("/:id/verify", h.VerifyPayment)
		payments.POST("/:id/refund", h.RefundPayment)
	}
}

// CreatePayment handles POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreatePayment(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	actor, paymentID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	dto, err := h.service.GetPayment(c.Request.Context(), actor, paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// VerifyPayment handles POST /api/v1/payments/:id/verify
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	actor, paymentID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	dto, err := h.service.ProcessPayment(c.Request.Context(), actor, paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// RefundPayment handles POST /api/v1/payments/:id/refund
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	actor, paymentID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	dto, err := h.service.RefundPayment(c.Request.Context(), actor, paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// ListPayments handles GET /api/v1/payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	actor := application.Actor{ID: userID, Role: middleware.GetUserRole(c)}

	filter, err := parseListFilter(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dtos, total, err := h.service.ListPayments(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dtos, total, filter.Page, filter.Limit)
}

// Webhook handles POST /api/v1/payments/webhook. The signature is checked
// against the raw body before any parsing; a body that fails verification
// triggers no state change and learns nothing beyond "invalid signature".
func (h *PaymentHandler) Webhook(c *gin.Context) {
	rawBody, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "invalid signature")
		return
	}

	signature := c.GetHeader("X-Signature")
	if signature == "" || !h.processor.VerifyWebhookSignature(rawBody, signature) {
		monitoring.RecordWebhookRejection()
		h.logger.Warn("webhook rejected: invalid signature",
			zap.String("client_ip", c.ClientIP()),
		)
		response.BadRequest(c, "invalid signature")
		return
	}

	var event application.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		response.BadRequest(c, "malformed webhook body")
		return
	}

	if err := h.service.HandleWebhookEvent(c.Request.Context(), event); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// actorAndID extracts the caller identity and the path payment ID.
func (h *PaymentHandler) actorAndID(c *gin.Context) (application.Actor, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return application.Actor{}, uuid.Nil, false
	}
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment ID")
		return application.Actor{}, uuid.Nil, false
	}
	return application.Actor{ID: userID, Role: middleware.GetUserRole(c)}, paymentID, true
}

// parseListFilter reads the listing query parameters.
func parseListFilter(c *gin.Context) (payment.ListFilter, error) {
	var filter payment.ListFilter

	if raw := c.Query("status"); raw != "" {
		status := payment.Status(raw)
		if !status.Valid() {
			return filter, errInvalidQuery("status")
		}
		filter.Status = &status
	}
	if raw := c.Query("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, errInvalidQuery("startDate")
		}
		filter.StartDate = &t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, errInvalidQuery("endDate")
		}
		filter.EndDate = &t
	}
	if raw := c.Query("minAmount"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, errInvalidQuery("minAmount")
		}
		filter.MinAmount = &n
	}
	if raw := c.Query("maxAmount"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, errInvalidQuery("maxAmount")
		}
		filter.MaxAmount = &n
	}
	filter.Search = c.Query("search")
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	filter.Normalize()
	return filter, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

type queryError string

func (e queryError) Error() string { return "invalid query parameter: " + string(e) }

func errInvalidQuery(name string) error { return queryError(name) }
