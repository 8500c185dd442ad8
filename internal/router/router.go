package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focusflow/backend/internal/handler"
	"focusflow/backend/internal/middleware"
	"focusflow/backend/internal/service"
)

type Deps struct {
	AuthService         *service.AuthService
	AuthHandler         *handler.AuthHandler
	TimerHandler        *handler.TimerHandler
	TemplateHandler     *handler.TemplateHandler
	TaskHandler         *handler.TaskHandler
	HabitHandler        *handler.HabitHandler
	StatsHandler        *handler.StatsHandler
	FeedHandler         *handler.FeedHandler
	NotificationHandler *handler.NotificationHandler
	CORSOrigins         []string
}

func New(deps Deps) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(deps.CORSOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", deps.AuthHandler.Register)
	auth.POST("/login", deps.AuthHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.Auth(deps.AuthService))

	timer := protected.Group("/timer")
	timer.GET("/state", deps.TimerHandler.GetState)
	timer.POST("/start", deps.TimerHandler.Start)
	timer.POST("/complete", deps.TimerHandler.Complete)
	timer.POST("/skip", deps.TimerHandler.Skip)
	timer.POST("/reset", deps.TimerHandler.Reset)
	timer.PUT("/template", deps.TimerHandler.SelectTemplate)
	timer.PUT("/custom", deps.TimerHandler.UpdateCustomTemplate)

	protected.GET("/templates", deps.TemplateHandler.List)
	protected.GET("/templates/:id", deps.TemplateHandler.Get)
	protected.GET("/sessions", deps.TimerHandler.History)

	tasks := protected.Group("/tasks")
	tasks.GET("", deps.TaskHandler.List)
	tasks.POST("", deps.TaskHandler.Create)
	tasks.PUT("/:id", deps.TaskHandler.Update)
	tasks.DELETE("/:id", deps.TaskHandler.Delete)
	tasks.POST("/:id/complete", deps.TaskHandler.Complete)

	habits := protected.Group("/habits")
	habits.GET("", deps.HabitHandler.List)
	habits.POST("", deps.HabitHandler.Create)
	habits.DELETE("/:id", deps.HabitHandler.Delete)
	habits.POST("/:id/checkin", deps.HabitHandler.Checkin)

	protected.GET("/stats/me", deps.StatsHandler.Me)
	protected.GET("/leaderboard", deps.StatsHandler.Leaderboard)
	protected.GET("/feed", deps.FeedHandler.Recent)

	notifications := protected.Group("/notifications")
	notifications.GET("", deps.NotificationHandler.List)
	notifications.POST("/:id/read", deps.NotificationHandler.MarkRead)
	notifications.POST("/read-all", deps.NotificationHandler.MarkAllRead)

	return engine
}
