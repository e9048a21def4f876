package handlers

import (
	"net/http"

	"medimind_backend/internal/dto"
	"medimind_backend/internal/middleware"
	"medimind_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	*BaseHandler
	userService   services.UserService
	ledgerService services.LedgerService
}

func NewUserHandler(base *BaseHandler, userService services.UserService, ledgerService services.LedgerService) *UserHandler {
	return &UserHandler{
		BaseHandler:   base,
		userService:   userService,
		ledgerService: ledgerService,
	}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.GET("/profile", h.GetProfile)
		users.PUT("/profile", h.UpdateProfile)
		users.GET("/credits", h.GetCredits)
	}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	profile, err := h.userService.GetProfile(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	user, err := h.userService.UpdateProfile(db, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetCredits returns the ledger-backed balance plus recent entries.
func (h *UserHandler) GetCredits(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	page, pageSize := ParsePagination(c)

	balance, err := h.ledgerService.Balance(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	history, err := h.ledgerService.History(db, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance": balance,
		"history": history,
	})
}
