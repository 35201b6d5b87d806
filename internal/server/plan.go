package server

import (
	"net/http"
	"strings"

	plandomain "github.com/ataboardhq/ataboard/internal/plan/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// @Summary      Create Plan
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        request body plandomain.CreatePlanRequest true "Create Plan Request"
// @Success      200  {object}  plandomain.Plan
// @Router       /api/plans [post]
func (s *Server) CreatePlan(c *gin.Context) {
	var req plandomain.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Plans
// @Tags         plans
// @Produce      json
// @Success      200  {object}  []plandomain.Plan
// @Router       /api/plans [get]
func (s *Server) ListPlans(c *gin.Context) {
	resp, err := s.planSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Plan
// @Tags         plans
// @Produce      json
// @Param        id   path      string  true  "Plan ID"
// @Success      200  {object}  plandomain.Plan
// @Router       /api/plans/{id} [get]
func (s *Server) GetPlanByID(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, plandomain.ErrInvalidPlanID)
		return
	}

	resp, err := s.planSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
