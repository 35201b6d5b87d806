package server

import (
	"net/http"

	invoicedomain "github.com/ataboardhq/ataboard/internal/invoice/domain"
	"github.com/gin-gonic/gin"
)

// @Summary      Generate Invoice
// @Description  Idempotently generate the invoice for one subscription and reference month
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body invoicedomain.GenerateInvoiceRequest true "Generate Invoice Request"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /api/invoices/generate [post]
func (s *Server) GenerateInvoice(c *gin.Context) {
	var req invoicedomain.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.GenerateForPeriod(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Invoices
// @Tags         invoices
// @Produce      json
// @Param        client_id        query  string  false  "Client ID"
// @Param        subscription_id  query  string  false  "Subscription ID"
// @Param        status           query  string  false  "Status filter"
// @Param        reference_month  query  string  false  "Reference month (YYYY-MM)"
// @Success      200  {object}  []invoicedomain.Invoice
// @Router       /api/invoices [get]
func (s *Server) ListInvoices(c *gin.Context) {
	var query invoicedomain.ListInvoiceRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Invoice
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /api/invoices/{id} [get]
func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Update Invoice Status
// @Description  Manual override; only the status derived from payments is accepted
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id       path  string                                    true  "Invoice ID"
// @Param        request  body  invoicedomain.UpdateInvoiceStatusRequest  true  "Requested status"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /api/invoices/{id}/status [patch]
func (s *Server) UpdateInvoiceStatus(c *gin.Context) {
	var req invoicedomain.UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Invoice Payments
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  []paymentdomain.Payment
// @Router       /api/invoices/{id}/payments [get]
func (s *Server) ListInvoicePayments(c *gin.Context) {
	resp, err := s.paymentSvc.ListByInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
