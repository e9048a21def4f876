package handlers

import (
	"net/http"

	"medimind_backend/internal/dto"
	"medimind_backend/internal/middleware"
	"medimind_backend/internal/services"
	"medimind_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type ConsultationHandler struct {
	*BaseHandler
	consultationService services.ConsultationService
	doctorService       services.DoctorService
}

func NewConsultationHandler(
	base *BaseHandler,
	consultationService services.ConsultationService,
	doctorService services.DoctorService,
) *ConsultationHandler {
	return &ConsultationHandler{
		BaseHandler:         base,
		consultationService: consultationService,
		doctorService:       doctorService,
	}
}

func (h *ConsultationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	consultations := rg.Group("/consultations")
	consultations.Use(middleware.AuthMiddleware())
	{
		consultations.GET("/doctors", h.ListDoctors)
		consultations.POST("/suggest-doctors", h.SuggestDoctors)
		consultations.POST("", h.CreateSession)
		consultations.GET("", h.ListSessions)
		consultations.GET("/:sessionId", h.GetSession)
		consultations.PUT("/:sessionId/conversation", h.UpdateConversation)
		consultations.POST("/:sessionId/report", h.GenerateReport)
	}
}

func (h *ConsultationHandler) ListDoctors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"doctors": h.doctorService.Catalog()})
}

func (h *ConsultationHandler) SuggestDoctors(c *gin.Context) {
	var req dto.SuggestDoctorsRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	doctors, err := h.doctorService.SuggestDoctors(c.Request.Context(), req.Notes)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"doctors": doctors})
}

// CreateSession debits the session cost; a balance below the cost
// yields 402 with the needed/available counts.
func (h *ConsultationHandler) CreateSession(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateSessionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.consultationService.CreateSession(db, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *ConsultationHandler) ListSessions(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	sessions, err := h.consultationService.ListSessions(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *ConsultationHandler) GetSession(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("sessionId")
	if sessionID == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing session id"))
		return
	}

	db := h.GetDB(c)

	session, err := h.consultationService.GetSession(db, userID, sessionID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *ConsultationHandler) UpdateConversation(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateConversationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	if err := h.consultationService.UpdateConversation(db, userID, c.Param("sessionId"), req.Conversation); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Conversation updated"})
}

func (h *ConsultationHandler) GenerateReport(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	report, err := h.consultationService.GenerateReport(c.Request.Context(), db, userID, c.Param("sessionId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}
