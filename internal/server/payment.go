package server

import (
	"net/http"

	paymentdomain "github.com/ataboardhq/ataboard/internal/payment/domain"
	"github.com/gin-gonic/gin"
)

// @Summary      Record Payment
// @Description  Record an approved payment; the invoice flips to PAID atomically
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body paymentdomain.RecordPaymentRequest true "Record Payment Request"
// @Success      200  {object}  paymentdomain.Payment
// @Router       /api/payments [post]
func (s *Server) RecordPayment(c *gin.Context) {
	var req paymentdomain.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Record Invoice Payment
// @Description  Record an approved payment against the invoice in the path
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id      path  string                              true  "Invoice ID"
// @Param        request body  paymentdomain.RecordPaymentRequest  true  "Record Payment Request"
// @Success      200  {object}  paymentdomain.Payment
// @Router       /api/invoices/{id}/payments [post]
func (s *Server) RecordInvoicePayment(c *gin.Context) {
	var req paymentdomain.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.InvoiceID = c.Param("id")

	resp, err := s.paymentSvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Payment
// @Tags         payments
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  paymentdomain.Payment
// @Router       /api/payments/{id} [get]
func (s *Server) GetPaymentByID(c *gin.Context) {
	resp, err := s.paymentSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Reverse Payment
// @Description  Reverse a payment and re-derive the invoice status
// @Tags         payments
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  paymentdomain.Payment
// @Router       /api/payments/{id}/reverse [post]
func (s *Server) ReversePayment(c *gin.Context) {
	resp, err := s.paymentSvc.Reverse(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
