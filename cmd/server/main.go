package main

import (
	"html/template"
	"log"
	"path/filepath"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/tgbazaar/marketplace-backend/internal/api/routes"
	"github.com/tgbazaar/marketplace-backend/internal/config"
	"github.com/tgbazaar/marketplace-backend/internal/database"
	"github.com/tgbazaar/marketplace-backend/internal/models"
	"github.com/tgbazaar/marketplace-backend/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize logger
	logger.Init()

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize database", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()
	router.HTMLRender = loadTemplates(cfg.TemplatesDir)
	router.Static("/static", "./web/static")

	// Setup routes
	routes.SetupRoutes(router, db, cfg)

	logger.Info("Server starting on port " + cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Failed to start server", err)
	}
}

func loadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+1)
		files = append(files, layouts...)
		files = append(files, view)
		return files
	}

	funcMap := template.FuncMap{
		"categoryLabel": models.CategoryLabel,
		"add": func(a, b int) int {
			return a + b
		},
	}

	views := []string{
		"index.html",
		"posts.html",
		"post_detail.html",
		"my_posts.html",
		"search.html",
		"about.html",
		"admin_reviews.html",
		"403.html",
		"404.html",
	}
	for _, view := range views {
		r.AddFromFilesFuncs(view, funcMap, assemble(templatesDir+"/views/"+view)...)
	}

	return r
}
