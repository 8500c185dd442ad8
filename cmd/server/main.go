package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"focusflow/backend/internal/cache"
	"focusflow/backend/internal/config"
	"focusflow/backend/internal/db"
	"focusflow/backend/internal/handler"
	"focusflow/backend/internal/logging"
	"focusflow/backend/internal/model"
	"focusflow/backend/internal/pubsub"
	"focusflow/backend/internal/repository"
	"focusflow/backend/internal/router"
	"focusflow/backend/internal/service"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "focusflow-server",
	Short: "FocusFlow backend server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		database, err := db.OpenSQLite(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer database.Close()

		if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		fmt.Println("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func serve() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	userRepo := repository.NewUserRepository(database)
	timerRepo := repository.NewTimerRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	habitRepo := repository.NewHabitRepository(database)
	statsRepo := repository.NewStatsRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	feedRepo := repository.NewFeedRepository(database)

	bus := pubsub.NewBroker[pubsub.RewardEvent]()
	defer bus.Close()

	leaderboardCache := cache.New[[]model.LeaderboardEntry](cfg.LeaderboardCacheTTL, cfg.LeaderboardCacheTTL)

	rewardService := service.NewRewardService(statsRepo, feedRepo, bus, logger)
	authService := service.NewAuthService(userRepo, timerRepo, statsRepo, cfg.JWTSecret, cfg.TokenTTL)
	timerService := service.NewTimerService(timerRepo, rewardService, logger)
	taskService := service.NewTaskService(taskRepo, rewardService)
	habitService := service.NewHabitService(habitRepo, rewardService)
	statsService := service.NewStatsService(statsRepo, leaderboardCache)
	feedService := service.NewFeedService(feedRepo)
	notificationService := service.NewNotificationService(notificationRepo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notificationService.Run(ctx, bus.Subscribe(ctx))

	engine := router.New(router.Deps{
		AuthService:         authService,
		AuthHandler:         handler.NewAuthHandler(authService),
		TimerHandler:        handler.NewTimerHandler(timerService),
		TemplateHandler:     handler.NewTemplateHandler(),
		TaskHandler:         handler.NewTaskHandler(taskService),
		HabitHandler:        handler.NewHabitHandler(habitService),
		StatsHandler:        handler.NewStatsHandler(statsService),
		FeedHandler:         handler.NewFeedHandler(feedService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		CORSOrigins:         cfg.CORSOrigins,
	})

	logger.Info("server listening", zap.String("port", cfg.Port))
	return engine.Run(":" + cfg.Port)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
