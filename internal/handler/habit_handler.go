package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focusflow/backend/internal/middleware"
	"focusflow/backend/internal/service"
)

type HabitHandler struct {
	habitService *service.HabitService
}

type habitRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      int    `json:"points"`
}

func NewHabitHandler(habitService *service.HabitService) *HabitHandler {
	return &HabitHandler{habitService: habitService}
}

func (h *HabitHandler) Create(c *gin.Context) {
	var req habitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidJSON(c)
		return
	}

	userID := middleware.UserID(c)
	habit, apiErr := h.habitService.Create(c.Request.Context(), userID, service.HabitInput{
		Name:        req.Name,
		Description: req.Description,
		Points:      req.Points,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"habit": habit})
}

func (h *HabitHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	habits, apiErr := h.habitService.List(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habits": habits})
}

func (h *HabitHandler) Delete(c *gin.Context) {
	userID := middleware.UserID(c)
	if apiErr := h.habitService.Delete(c.Request.Context(), userID, c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *HabitHandler) Checkin(c *gin.Context) {
	userID := middleware.UserID(c)
	habit, apiErr := h.habitService.Checkin(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habit})
}
