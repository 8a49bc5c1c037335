package response

import (
	"errors"
	"net/http"

	"github.com/UniNest-Housing/service-payment/internal/domain"
	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response body: a structured status plus message.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Pagination describes the window of a paginated listing.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// Success writes a 200 with data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Status: "success", Data: data})
}

// Created writes a 201 with data.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Status: "success", Data: data})
}

// Paginated writes a 200 listing with its pagination window.
func Paginated(c *gin.Context, data any, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"data":       data,
		"pagination": Pagination{Total: total, Page: page, Limit: limit},
	})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Status: "error", Message: message})
}

// Unauthorized writes a 401 with the given message.
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Envelope{Status: "error", Message: message})
}

// Error maps a domain error kind to its HTTP status class. Unknown errors
// surface as 500 with a generic message.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var domErr *domain.DomainError
	if errors.As(err, &domErr) {
		message = domErr.Message
		switch {
		case errors.Is(domErr, domain.ErrBadRequest), errors.Is(domErr, domain.ErrInvalidState):
			status = http.StatusBadRequest
		case errors.Is(domErr, domain.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(domErr, domain.ErrConflict):
			status = http.StatusConflict
		case errors.Is(domErr, domain.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(domErr, domain.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(domErr, domain.ErrUpstream):
			status = http.StatusBadGateway
		}
	}

	c.JSON(status, Envelope{Status: "error", Message: message})
}
