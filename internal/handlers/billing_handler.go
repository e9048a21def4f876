package handlers

import (
	"net/http"

	"medimind_backend/internal/dto"
	"medimind_backend/internal/middleware"
	"medimind_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	*BaseHandler
	billingService services.BillingService
	planService    services.PlanService
}

func NewBillingHandler(base *BaseHandler, billingService services.BillingService, planService services.PlanService) *BillingHandler {
	return &BillingHandler{
		BaseHandler:    base,
		billingService: billingService,
		planService:    planService,
	}
}

func (h *BillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	plans := rg.Group("/plans")
	plans.Use(middleware.AuthMiddleware())
	{
		plans.GET("", h.ListPlans)
	}

	stripe := rg.Group("/stripe")
	stripe.Use(middleware.AuthMiddleware())
	{
		stripe.POST("/checkout", h.CreateCheckout)
		stripe.POST("/portal", h.CreatePortal)
	}
}

func (h *BillingHandler) ListPlans(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	response, err := h.planService.ListForUser(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *BillingHandler) CreateCheckout(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.billingService.CreateCheckout(db, userID, req.PlanID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *BillingHandler) CreatePortal(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	response, err := h.billingService.CreatePortal(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
