package handler

import (
	"github.com/UniNest-Housing/service-payment/internal/application"
	"github.com/UniNest-Housing/service-payment/internal/auth"
	"github.com/UniNest-Housing/service-payment/internal/middleware"
	"github.com/UniNest-Housing/service-payment/internal/response"
	"github.com/gin-gonic/gin"
)

// AdminHandler exposes cross-user payment views for operators.
type AdminHandler struct {
	service *application.PaymentService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *application.PaymentService) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers admin routes on the given router group.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/payments", h.ListAllPayments)
		admin.GET("/stats/payments", h.GetPaymentStats)
	}
}

// ListAllPayments handles GET /api/v1/admin/payments
func (h *AdminHandler) ListAllPayments(c *gin.Context) {
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

// GetPaymentStats handles GET /api/v1/admin/stats/payments
func (h *AdminHandler) GetPaymentStats(c *gin.Context) {
	stats, err := h.service.GetPaymentStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
