package handlers

import (
	"net/http"

	"medimind_backend/internal/config"
	"medimind_backend/internal/dto"
	"medimind_backend/internal/middleware"
	"medimind_backend/internal/services"
	"medimind_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the admin panel: cookie-based auth, user
// management, plan CRUD, settings, dashboard and analytics.
type AdminHandler struct {
	*BaseHandler
	authService      services.AuthService
	adminService     services.AdminService
	planService      services.PlanService
	settingsService  services.SettingsService
	analyticsService services.AnalyticsService
}

func NewAdminHandler(
	base *BaseHandler,
	authService services.AuthService,
	adminService services.AdminService,
	planService services.PlanService,
	settingsService services.SettingsService,
	analyticsService services.AnalyticsService,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:      base,
		authService:      authService,
		adminService:     adminService,
		planService:      planService,
		settingsService:  settingsService,
		analyticsService: analyticsService,
	}
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	{
		admin.POST("/auth/login", h.Login)
		admin.POST("/auth/logout", h.Logout)
	}

	protected := rg.Group("/admin")
	protected.Use(middleware.AdminAuthMiddleware())
	{
		protected.GET("/auth/me", h.Me)

		protected.GET("/dashboard", h.Dashboard)
		protected.GET("/analytics", h.Analytics)

		protected.GET("/users", h.ListUsers)
		protected.PUT("/users", h.UpdateUser)
		protected.DELETE("/users", h.DeleteUser)

		protected.GET("/plans", h.ListPlans)
		protected.POST("/plans", h.CreatePlan)
		protected.PUT("/plans/:planId", h.UpdatePlan)
		protected.DELETE("/plans/:planId", h.DeletePlan)

		protected.GET("/settings", h.ListSettings)
		protected.POST("/settings", h.CreateSetting)
		protected.PUT("/settings", h.UpdateSettings)
	}
}

// Login issues the admin JWT as an HttpOnly cookie; the token never
// appears in the response body.
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.AdminLoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	token, admin, err := h.authService.AdminLogin(db, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	cfg := config.GetConfig()
	secure := cfg.Server.Env == "production"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AdminCookieName, token, cfg.JWT.TTL*3600, "/", "", secure, true)

	c.JSON(http.StatusOK, dto.AdminLoginResponse{Success: true, Admin: admin})
}

func (h *AdminHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.AdminCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"id":    c.GetString("adminID"),
		"email": c.GetString("adminEmail"),
	})
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	db := h.GetDB(c)

	response, err := h.analyticsService.Dashboard(db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *AdminHandler) Analytics(c *gin.Context) {
	db := h.GetDB(c)

	response, err := h.analyticsService.Analytics(db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	db := h.GetDB(c)

	users, stats, err := h.adminService.ListUsers(db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "stats": stats})
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	user, err := h.adminService.UpdateUser(db, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("User ID is required"))
		return
	}

	db := h.GetDB(c)

	if err := h.adminService.DeleteUser(db, userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) ListPlans(c *gin.Context) {
	db := h.GetDB(c)

	plans, err := h.planService.ListAll(db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (h *AdminHandler) CreatePlan(c *gin.Context) {
	var req dto.CreatePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	plan, err := h.planService.Create(db, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, plan)
}

func (h *AdminHandler) UpdatePlan(c *gin.Context) {
	planID := c.Param("planId")
	if planID == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing plan id"))
		return
	}

	var req dto.UpdatePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	plan, err := h.planService.Update(db, planID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *AdminHandler) DeletePlan(c *gin.Context) {
	db := h.GetDB(c)

	if err := h.planService.Delete(db, c.Param("planId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) ListSettings(c *gin.Context) {
	db := h.GetDB(c)

	settings, err := h.settingsService.List(db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *AdminHandler) CreateSetting(c *gin.Context) {
	var req dto.CreateSettingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	setting, err := h.settingsService.Create(db, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, setting)
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	settings, err := h.settingsService.UpdateMany(db, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}
