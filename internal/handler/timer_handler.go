package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "focusflow/backend/internal/errors"
	"focusflow/backend/internal/middleware"
	"focusflow/backend/internal/service"
	"focusflow/backend/internal/timer"
)

type TimerHandler struct {
	timerService *service.TimerService
}

type versionRequest struct {
	BaseVersion int `json:"baseVersion"`
}

type selectTemplateRequest struct {
	BaseVersion int    `json:"baseVersion"`
	TemplateID  string `json:"templateId"`
}

type customTemplateRequest struct {
	BaseVersion            int    `json:"baseVersion"`
	WorkMinutes            int    `json:"workMinutes"`
	ShortBreakMinutes      int    `json:"shortBreakMinutes"`
	LongBreakMinutes       int    `json:"longBreakMinutes"`
	SessionsUntilLongBreak int    `json:"sessionsUntilLongBreak"`
	ReloadPolicy           string `json:"reloadPolicy"`
}

func NewTimerHandler(timerService *service.TimerService) *TimerHandler {
	return &TimerHandler{timerService: timerService}
}

func (h *TimerHandler) GetState(c *gin.Context) {
	userID := middleware.UserID(c)
	state, apiErr := h.timerService.GetState(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) Start(c *gin.Context) {
	h.mutate(c, h.timerService.Start)
}

func (h *TimerHandler) Complete(c *gin.Context) {
	h.mutate(c, h.timerService.CompletePhase)
}

func (h *TimerHandler) Skip(c *gin.Context) {
	h.mutate(c, h.timerService.Skip)
}

func (h *TimerHandler) Reset(c *gin.Context) {
	h.mutate(c, h.timerService.Reset)
}

func (h *TimerHandler) SelectTemplate(c *gin.Context) {
	var req selectTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidJSON(c)
		return
	}
	if req.BaseVersion <= 0 {
		invalidBaseVersion(c)
		return
	}

	userID := middleware.UserID(c)
	state, apiErr := h.timerService.SelectTemplate(c.Request.Context(), userID, req.TemplateID, req.BaseVersion)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) UpdateCustomTemplate(c *gin.Context) {
	var req customTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidJSON(c)
		return
	}
	if req.BaseVersion <= 0 {
		invalidBaseVersion(c)
		return
	}

	userID := middleware.UserID(c)
	state, apiErr := h.timerService.UpdateCustomTemplate(c.Request.Context(), userID, req.BaseVersion, service.CustomTemplateInput{
		WorkMinutes:            req.WorkMinutes,
		ShortBreakMinutes:      req.ShortBreakMinutes,
		LongBreakMinutes:       req.LongBreakMinutes,
		SessionsUntilLongBreak: req.SessionsUntilLongBreak,
		ReloadPolicy:           timer.ReloadPolicy(req.ReloadPolicy),
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) History(c *gin.Context) {
	userID := middleware.UserID(c)

	limit := 50
	if rawLimit := c.Query("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	sessions, apiErr := h.timerService.History(c.Request.Context(), userID, limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

type timerMutation func(ctx context.Context, userID string, baseVersion int) (*service.TimerStateView, *apperrors.APIError)

func (h *TimerHandler) mutate(c *gin.Context, op timerMutation) {
	var req versionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidJSON(c)
		return
	}
	if req.BaseVersion <= 0 {
		invalidBaseVersion(c)
		return
	}

	userID := middleware.UserID(c)
	state, apiErr := op(c.Request.Context(), userID, req.BaseVersion)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}
