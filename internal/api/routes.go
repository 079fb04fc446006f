package api

import (
	"github.com/gin-gonic/gin"
	"github.com/hypanel/hypanel/internal/api/handlers"
	"github.com/hypanel/hypanel/internal/api/middleware"
	"github.com/hypanel/hypanel/internal/auth"
	"github.com/hypanel/hypanel/internal/config"
	"github.com/hypanel/hypanel/internal/downloader"
	"github.com/hypanel/hypanel/internal/instance"
	"github.com/hypanel/hypanel/internal/metrics"
	"github.com/hypanel/hypanel/internal/supervisor"
	"github.com/hypanel/hypanel/internal/websocket"
)

// Deps carries the services the router exposes over HTTP.
type Deps struct {
	Config     *config.Config
	Store      *instance.Store
	Supervisor *supervisor.Supervisor
	Metrics    *metrics.Store
	Downloader *downloader.Manager
	Hub        *websocket.Hub
}

// SetupRouter configures and returns the HTTP router
func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.Security.CORS))

	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWTSecret,
		config.ParseDuration(cfg.Auth.AccessTokenDuration, auth.DefaultTokenDuration),
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(deps.Store, jwtManager, cfg.Auth.BcryptCost)
	instanceHandler := handlers.NewInstanceHandler(deps.Store, deps.Supervisor)
	gameFilesHandler := handlers.NewGameFilesHandler(deps.Store)
	logsHandler := handlers.NewLogsHandler(deps.Store)
	metricsHandler := handlers.NewMetricsHandler(deps.Store, deps.Metrics)
	systemHandler := handlers.NewSystemHandler()
	downloadHandler := handlers.NewDownloadHandler(deps.Store, deps.Downloader)
	wsHandler := handlers.NewWSHandler(deps.Store, deps.Hub, cfg.Security.CORS)

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/auth/setup-status", authHandler.SetupStatus)
		public.POST("/auth/setup", authHandler.Setup)
		public.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.Auth(jwtManager))
	{
		protected.GET("/status", instanceHandler.StatusAll)

		instances := protected.Group("/instances")
		{
			instances.GET("", instanceHandler.List)
			instances.POST("", instanceHandler.Create)
			instances.GET(":id", instanceHandler.Get)
			instances.PUT(":id", instanceHandler.Update)
			instances.DELETE(":id", instanceHandler.Delete)

			instances.POST(":id/start", instanceHandler.Start)
			instances.POST(":id/stop", instanceHandler.Stop)
			instances.POST(":id/command", instanceHandler.Command)
			instances.GET(":id/status", instanceHandler.Status)
			instances.GET(":id/files", instanceHandler.Files)

			instances.GET(":id/whitelist", gameFilesHandler.GetWhitelist)
			instances.PUT(":id/whitelist", gameFilesHandler.UpdateWhitelist)
			instances.GET(":id/bans", gameFilesHandler.GetBans)
			instances.PUT(":id/bans", gameFilesHandler.UpdateBans)
			instances.GET(":id/permissions", gameFilesHandler.GetPermissions)
			instances.PUT(":id/permissions", gameFilesHandler.UpdatePermissions)
			instances.GET(":id/config", gameFilesHandler.GetServerConfig)
			instances.PUT(":id/config", gameFilesHandler.UpdateServerConfig)

			instances.GET(":id/worlds", gameFilesHandler.ListWorlds)
			instances.GET(":id/worlds/:world/config", gameFilesHandler.GetWorldConfig)
			instances.PUT(":id/worlds/:world/config", gameFilesHandler.UpdateWorldConfig)
			instances.DELETE(":id/worlds/:world", gameFilesHandler.DeleteWorld)
			instances.POST(":id/worlds/:world/duplicate", gameFilesHandler.DuplicateWorld)

			instances.GET(":id/logs", logsHandler.List)
			instances.GET(":id/logs/read", logsHandler.Read)
			instances.GET(":id/logs/tail", logsHandler.Tail)

			instances.GET(":id/metrics/latest", metricsHandler.Latest)
			instances.GET(":id/metrics/history", metricsHandler.History)

			instances.POST(":id/download", downloadHandler.DownloadServerFiles)
		}

		protected.GET("/metrics/system", metricsHandler.System)
		protected.GET("/system/java", systemHandler.Java)
		protected.GET("/system/game-paths", systemHandler.GamePaths)

		downloads := protected.Group("/downloader")
		{
			downloads.GET("/info", downloadHandler.Info)
			downloads.GET("/versions", downloadHandler.Versions)
			downloads.POST("/install", downloadHandler.InstallCLI)
			downloads.POST("/check-update", downloadHandler.CheckUpdate)
		}

		// WebSocket routes (token accepted via query parameter)
		protected.GET("/ws", wsHandler.Events)
		protected.GET("/ws/console/:id", wsHandler.Console)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router
}
