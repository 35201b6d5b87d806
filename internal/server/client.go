package server

import (
	"net/http"
	"strings"

	clientdomain "github.com/ataboardhq/ataboard/internal/client/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type createClientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	TaxID   string `json:"tax_id"`
	Address string `json:"address"`
}

// @Summary      Create Client
// @Description  Register a new billed party
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        request body createClientRequest true "Create Client Request"
// @Success      200  {object}  clientdomain.Client
// @Router       /api/clients [post]
func (s *Server) CreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.clientSvc.Create(c.Request.Context(), clientdomain.CreateClientRequest{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		TaxID:   strings.TrimSpace(req.TaxID),
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Clients
// @Tags         clients
// @Produce      json
// @Param        status  query  string  false  "Standing filter (ACTIVE or DELINQUENT)"
// @Success      200  {object}  []clientdomain.Client
// @Router       /api/clients [get]
func (s *Server) ListClients(c *gin.Context) {
	var query clientdomain.ListClientRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.clientSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Client
// @Tags         clients
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  clientdomain.Client
// @Router       /api/clients/{id} [get]
func (s *Server) GetClientByID(c *gin.Context) {
	resp, err := s.clientSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Client Standing
// @Description  Recompute and return the client's standing from its invoices
// @Tags         clients
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  map[string]string
// @Router       /api/clients/{id}/standing [get]
func (s *Server) GetClientStanding(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	clientID, err := snowflake.ParseString(id)
	if err != nil {
		AbortWithError(c, clientdomain.ErrInvalidClientID)
		return
	}

	standing, err := s.clientSvc.RecomputeStanding(c.Request.Context(), clientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"client_id": id,
		"standing":  standing,
	}})
}
