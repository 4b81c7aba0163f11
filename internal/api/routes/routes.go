package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tgbazaar/marketplace-backend/internal/api/handlers"
	"github.com/tgbazaar/marketplace-backend/internal/api/middleware"
	"github.com/tgbazaar/marketplace-backend/internal/config"
	"github.com/tgbazaar/marketplace-backend/internal/services"
	"github.com/tgbazaar/marketplace-backend/pkg/logger"
	"gorm.io/gorm"
)

func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) {
	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RateLimitMiddleware(cfg))

	// Initialize services
	identityService := services.NewIdentityService(db, cfg.AdminTelegramID)
	postService := services.NewPostService(db)
	reviewService := services.NewReviewService(db)

	// Identity from the user_data query parameter; body-carried identity is
	// resolved inside the mutating handlers.
	router.Use(middleware.Identity(identityService))

	// Initialize handlers
	postHandler := handlers.NewPostHandler(postService, reviewService, identityService)
	reviewHandler := handlers.NewReviewHandler(reviewService, identityService)
	pageHandler := handlers.NewPageHandler(postService, reviewService)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "message": "Server is running"})
	})

	// HTML views
	router.GET("/", pageHandler.Index)
	router.GET("/home", pageHandler.Home)
	router.GET("/posts", pageHandler.Posts)
	router.GET("/post/:post_id", pageHandler.PostDetail)
	router.GET("/my_posts", pageHandler.MyPosts)
	router.GET("/search", pageHandler.Search)
	router.GET("/about", pageHandler.About)
	router.GET("/admin/reviews", pageHandler.AdminReviews)

	// Listing creation (Mini App form posts here)
	router.POST("/create", postHandler.Create)

	// JSON API
	api := router.Group("/api")
	{
		api.GET("/post/:post_id", postHandler.Get)
		api.PUT("/post/:post_id", postHandler.Update)
		api.DELETE("/post/:post_id", postHandler.Delete)

		api.GET("/posts", postHandler.List)
		api.GET("/categories", postHandler.Categories)

		api.POST("/review", reviewHandler.Create)
		api.POST("/review/:review_id/moderate", reviewHandler.Moderate)
		api.GET("/reviews/approved", reviewHandler.ListApproved)

		api.GET("/user/:telegram_id/reviews", reviewHandler.ListByUser)
		api.GET("/user/:telegram_id/posts", postHandler.ListByUser)
	}

	router.NoRoute(pageHandler.NotFound)

	logger.Info("Routes initialized successfully")
}
