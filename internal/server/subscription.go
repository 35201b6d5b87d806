package server

import (
	"net/http"

	subdomain "github.com/ataboardhq/ataboard/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

// @Summary      Create Subscription
// @Description  Subscribe a client to a plan with a billing day between 1 and 28
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        request body subdomain.CreateSubscriptionRequest true "Create Subscription Request"
// @Success      200  {object}  subdomain.Subscription
// @Router       /api/subscriptions [post]
func (s *Server) CreateSubscription(c *gin.Context) {
	var req subdomain.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Subscriptions
// @Tags         subscriptions
// @Produce      json
// @Param        client_id  query  string  false  "Client ID"
// @Param        status     query  string  false  "Status filter"
// @Success      200  {object}  []subdomain.Subscription
// @Router       /api/subscriptions [get]
func (s *Server) ListSubscriptions(c *gin.Context) {
	var query subdomain.ListSubscriptionRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Subscription
// @Tags         subscriptions
// @Produce      json
// @Param        id   path      string  true  "Subscription ID"
// @Success      200  {object}  subdomain.Subscription
// @Router       /api/subscriptions/{id} [get]
func (s *Server) GetSubscriptionByID(c *gin.Context) {
	resp, err := s.subSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Cancel Subscription
// @Description  Cancel terminally; the current month stays billable
// @Tags         subscriptions
// @Produce      json
// @Param        id   path      string  true  "Subscription ID"
// @Success      200  {object}  subdomain.Subscription
// @Router       /api/subscriptions/{id}/cancel [post]
func (s *Server) CancelSubscription(c *gin.Context) {
	resp, err := s.subSvc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Suspend Subscription
// @Tags         subscriptions
// @Produce      json
// @Param        id   path      string  true  "Subscription ID"
// @Success      200  {object}  subdomain.Subscription
// @Router       /api/subscriptions/{id}/suspend [post]
func (s *Server) SuspendSubscription(c *gin.Context) {
	resp, err := s.subSvc.Suspend(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Activate Subscription
// @Description  Resume a suspended subscription
// @Tags         subscriptions
// @Produce      json
// @Param        id   path      string  true  "Subscription ID"
// @Success      200  {object}  subdomain.Subscription
// @Router       /api/subscriptions/{id}/activate [post]
func (s *Server) ActivateSubscription(c *gin.Context) {
	resp, err := s.subSvc.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
