package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Run Invoice Generation
// @Description  Trigger the monthly generation job for the current month
// @Tags         jobs
// @Produce      json
// @Success      200  {object}  invoicedomain.GenerateReport
// @Router       /api/jobs/generate-invoices [post]
func (s *Server) RunGenerateJob(c *gin.Context) {
	report, err := s.invoiceSvc.GenerateDueInvoices(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

// @Summary      Run Overdue Sweep
// @Description  Trigger the daily overdue sweep
// @Tags         jobs
// @Produce      json
// @Success      200  {object}  invoicedomain.SweepReport
// @Router       /api/jobs/sweep-overdue [post]
func (s *Server) RunSweepJob(c *gin.Context) {
	report, err := s.invoiceSvc.SweepOverdue(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}
