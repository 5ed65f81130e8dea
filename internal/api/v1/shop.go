package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marketpay/marketpay/internal/api/dto"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/logger"
	"github.com/marketpay/marketpay/internal/service"
)

type ShopHandler struct {
	service  service.ShopService
	invoices service.InvoiceService
	log      *logger.Logger
}

func NewShopHandler(service service.ShopService, invoices service.InvoiceService, log *logger.Logger) *ShopHandler {
	return &ShopHandler{service: service, invoices: invoices, log: log}
}

// @Summary Register a new shop
// @Description Register a shop with its stall code and owner details
// @Tags Shops
// @Accept json
// @Produce json
// @Param shop body dto.CreateShopRequest true "Shop details"
// @Success 201 {object} dto.ShopResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /shops [post]
func (h *ShopHandler) CreateShop(c *gin.Context) {
	var req dto.CreateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateShop(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to create shop", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a shop by ID
// @Description Get a shop by ID
// @Tags Shops
// @Accept json
// @Produce json
// @Param id path string true "Shop ID"
// @Success 200 {object} dto.ShopResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /shops/{id} [get]
func (h *ShopHandler) GetShop(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Shop ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetShop(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Failed to get shop", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List shops
// @Description List all registered shops
// @Tags Shops
// @Accept json
// @Produce json
// @Success 200 {object} dto.ListShopsResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /shops [get]
func (h *ShopHandler) ListShops(c *gin.Context) {
	resp, err := h.service.ListShops(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list shops", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List a shop's invoices
// @Description List a shop's invoices with computed totals, newest period first
// @Tags Shops
// @Accept json
// @Produce json
// @Param id path string true "Shop ID"
// @Success 200 {object} dto.ListInvoicesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /shops/{id}/invoices [get]
func (h *ShopHandler) ListShopInvoices(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Shop ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoices.ListShopInvoices(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Failed to list shop invoices", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
