package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "focusflow/backend/internal/errors"
	"focusflow/backend/internal/template"
)

type TemplateHandler struct{}

func NewTemplateHandler() *TemplateHandler {
	return &TemplateHandler{}
}

func (h *TemplateHandler) List(c *gin.Context) {
	if category := c.Query("category"); category != "" {
		templates := template.ByCategory(category)
		if templates == nil {
			templates = []template.Template{}
		}
		c.JSON(http.StatusOK, gin.H{"templates": templates})
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": template.All()})
}

func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, ok := template.ByID(c.Param("id"))
	if !ok {
		writeError(c, apperrors.NotFound("template_not_found", "unknown session template"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": tpl})
}
