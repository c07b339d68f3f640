package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tutorhub/internal/ai"
	appsvc "tutorhub/internal/app"
	"tutorhub/internal/bootstrap"
	"tutorhub/internal/cache"
	"tutorhub/internal/chunker"
	"tutorhub/internal/platform/rabbitmq"
	"tutorhub/internal/repository"
	"tutorhub/internal/transport/http/handler"
	"tutorhub/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(app.Log), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.Postgres)
	docRepo := repository.NewDocumentRepository(app.Postgres)
	chunkRepo := repository.NewChunkRepository(app.Postgres, app.Config.OpenAI.EmbeddingDimensions)
	tutorRepo := repository.NewTutorRepository(app.Postgres)
	convRepo := repository.NewConversationRepository(app.Postgres)
	messageRepo := repository.NewMessageRepository(app.Postgres)
	usageRepo := repository.NewUsageRepository(app.Postgres)

	aiClient := ai.NewClient(app.Config.OpenAI.APIKey, app.Config.OpenAI.BaseURL, app.Log)
	usagePublisher := rabbitmq.NewUsagePublisher(app.MQConn, app.Config.RabbitMQ.UsagePersistQueue)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	chunkOpts := chunker.Options{
		MinTokens:     app.Config.Chunking.MinTokens,
		MaxTokens:     app.Config.Chunking.MaxTokens,
		OverlapTokens: app.Config.Chunking.OverlapTokens,
	}

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	docService := appsvc.NewDocumentService(
		docRepo, chunkRepo, tutorRepo,
		aiClient, usagePublisher,
		chunkOpts, app.Config.OpenAI.EmbeddingModel, app.Log,
	)
	tutorService := appsvc.NewTutorService(tutorRepo, docRepo, app.Config.OpenAI.ChatModel)
	ragService := appsvc.NewRAGService(
		aiClient, aiClient, chunkRepo, tutorRepo,
		app.Config.OpenAI.EmbeddingModel, app.Log,
	)
	chatService := appsvc.NewChatService(
		convRepo, messageRepo, tutorRepo,
		ragService, historyCache, usagePublisher, app.Log,
	)
	usageService := appsvc.NewUsageService(usageRepo)

	authHandler := handler.NewAuthHandler(authService)
	docHandler := handler.NewDocumentHandler(docService, int64(app.Config.Limits.MaxUploadBytes))
	tutorHandler := handler.NewTutorHandler(tutorService)
	chatHandler := handler.NewChatHandler(chatService, app.Log)
	usageHandler := handler.NewUsageHandler(usageService)

	authJWT := middleware.AuthJWT(app.Config.Auth.JWTSecret)
	rateLimit := middleware.RateLimit(app.Redis, app.Config.Limits.RequestsPerMinute, time.Minute)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authJWT, authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.Use(authJWT, rateLimit)
	docGroup.POST("", docHandler.Create)
	docGroup.POST("/upload", docHandler.Upload)
	docGroup.GET("", docHandler.List)
	docGroup.GET("/:id", docHandler.Get)
	docGroup.POST("/:id/reprocess", docHandler.Reprocess)
	docGroup.DELETE("/:id", docHandler.Delete)

	tutorGroup := v1.Group("/tutors")
	tutorGroup.Use(authJWT, rateLimit)
	tutorGroup.POST("", tutorHandler.Create)
	tutorGroup.GET("", tutorHandler.List)
	tutorGroup.GET("/:id", tutorHandler.Get)
	tutorGroup.PUT("/:id", tutorHandler.Update)
	tutorGroup.DELETE("/:id", tutorHandler.Delete)
	tutorGroup.GET("/:id/documents", tutorHandler.ListDocuments)
	tutorGroup.POST("/:id/documents/:docId", tutorHandler.LinkDocument)
	tutorGroup.DELETE("/:id/documents/:docId", tutorHandler.UnlinkDocument)

	v1.GET("/marketplace/tutors", authJWT, tutorHandler.Marketplace)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(authJWT, rateLimit)
	chatGroup.POST("/conversations", chatHandler.CreateConversation)
	chatGroup.GET("/conversations", chatHandler.ListConversations)
	chatGroup.DELETE("/conversations/:id", chatHandler.DeleteConversation)
	chatGroup.GET("/history", chatHandler.GetHistory)
	chatGroup.POST("/messages", chatHandler.SendMessage)
	chatGroup.POST("/messages/stream", chatHandler.StreamMessage)

	v1.GET("/usage/summary", authJWT, usageHandler.Summary)

	return router
}
