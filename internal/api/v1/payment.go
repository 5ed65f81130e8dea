package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marketpay/marketpay/internal/api/dto"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/logger"
	"github.com/marketpay/marketpay/internal/service"
)

type PaymentHandler struct {
	service service.PaymentService
	batch   service.BatchService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, batch service.BatchService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, batch: batch, log: log}
}

// @Summary Apply a payment
// @Description Apply a payment to one category of a shop's invoice for a billing period
// @Tags Payments
// @Accept json
// @Produce json
// @Param payment body dto.ApplyPaymentRequest true "Payment details"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /payments [post]
func (h *PaymentHandler) ApplyPayment(c *gin.Context) {
	var req dto.ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ApplyPayment(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to apply payment", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a payment by ID
// @Description Get a payment by ID
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Payment ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Failed to get payment", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Apply a batch of payments
// @Description Process a CSV payment file, applying each row independently
// @Tags Payments
// @Accept json
// @Produce json
// @Param batch body dto.BatchPaymentRequest true "Payment file"
// @Success 200 {object} dto.BatchPaymentResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /payments/batch [post]
func (h *PaymentHandler) ApplyPaymentBatch(c *gin.Context) {
	var req dto.BatchPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.batch.ProcessPaymentFile(c.Request.Context(), []byte(req.FileContent), req.Concurrency)
	if err != nil {
		h.log.Error("Failed to process payment batch", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
