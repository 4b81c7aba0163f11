package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tgbazaar/marketplace-backend/internal/api/middleware"
	"github.com/tgbazaar/marketplace-backend/internal/models"
	"github.com/tgbazaar/marketplace-backend/internal/services"
	"github.com/tgbazaar/marketplace-backend/internal/utils"
	"github.com/tgbazaar/marketplace-backend/pkg/logger"
)

type PostHandler struct {
	postService     *services.PostService
	reviewService   *services.ReviewService
	identityService *services.IdentityService
}

func NewPostHandler(postService *services.PostService, reviewService *services.ReviewService, identityService *services.IdentityService) *PostHandler {
	return &PostHandler{
		postService:     postService,
		reviewService:   reviewService,
		identityService: identityService,
	}
}

// PostResponse is the JSON shape of a listing, author aggregate included.
type PostResponse struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Content            string  `json:"content"`
	Category           string  `json:"category"`
	CategoryDisplay    string  `json:"category_display"`
	Price              string  `json:"price,omitempty"`
	ContactInfo        string  `json:"contact_info"`
	ImageURL           string  `json:"image_url,omitempty"`
	CreatedAt          string  `json:"created_at"`
	CreatedAtDisplay   string  `json:"created_at_display"`
	IsActive           bool    `json:"is_active"`
	UserID             uint    `json:"user_id"`
	Author             string  `json:"author"`
	AuthorName         string  `json:"author_name"`
	AuthorUsername     string  `json:"author_username,omitempty"`
	AuthorRating       float64 `json:"author_rating"`
	AuthorReviewsCount int64   `json:"author_reviews_count"`
}

func (h *PostHandler) toResponse(c *gin.Context, post models.Post, ratings map[uint]*services.SellerRating) PostResponse {
	resp := PostResponse{
		ID:               post.ID,
		Title:            post.Title,
		Content:          post.Content,
		Category:         post.Category,
		CategoryDisplay:  models.CategoryLabel(post.Category),
		Price:            post.Price,
		ContactInfo:      post.ContactInfo,
		ImageURL:         post.ImageURL,
		CreatedAt:        post.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		CreatedAtDisplay: post.CreatedAt.Format("02.01.2006 в 15:04"),
		IsActive:         post.IsActive,
		UserID:           post.UserID,
		Author:           post.Author.DisplayName(),
		AuthorName:       post.Author.DisplayName(),
	}
	if post.Author.Username != "" {
		resp.AuthorUsername = "@" + post.Author.Username
	}

	rating, ok := ratings[post.UserID]
	if !ok {
		var err error
		rating, err = h.reviewService.RatingForSeller(c.Request.Context(), post.UserID)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"user_id": post.UserID,
				"error":   err.Error(),
			}).Error("failed to compute seller rating")
		}
		if rating == nil {
			rating = &services.SellerRating{}
		}
		ratings[post.UserID] = rating
	}
	resp.AuthorRating = rating.Average
	resp.AuthorReviewsCount = rating.Count
	return resp
}

// Create handles POST /create.
func (h *PostHandler) Create(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, services.ErrValidation)
		return
	}

	author, err := h.identityService.Resolve(req.UserData)
	if err != nil {
		RespondError(c, err)
		return
	}

	post, err := h.postService.Create(c.Request.Context(), author, req)
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.SendSuccessFields(c, "Объявление успешно опубликовано!", gin.H{"post_id": post.ID})
}

// Get handles GET /api/post/:post_id.
func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.postService.GetByID(c.Request.Context(), c.Param("post_id"), middleware.CurrentUser(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	ratings := map[uint]*services.SellerRating{}
	utils.SendSuccessFields(c, "", gin.H{"post": h.toResponse(c, *post, ratings)})
}

// Update handles PUT /api/post/:post_id. Only fields present in the body are
// applied; the requester must be the author.
func (h *PostHandler) Update(c *gin.Context) {
	var req models.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, services.ErrValidation)
		return
	}

	requester := middleware.CurrentUser(c)
	if requester == nil && req.UserData.Valid() {
		user, err := h.identityService.Resolve(req.UserData)
		if err != nil {
			RespondError(c, err)
			return
		}
		requester = user
	}

	post, err := h.postService.Update(c.Request.Context(), c.Param("post_id"), requester, req)
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.SendSuccessFields(c, "Объявление успешно обновлено", gin.H{"post_id": post.ID})
}

// Delete handles DELETE /api/post/:post_id.
func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.postService.Delete(c.Request.Context(), c.Param("post_id"), middleware.CurrentUser(c)); err != nil {
		RespondError(c, err)
		return
	}
	utils.SendSuccess(c, "Объявление успешно удалено", nil)
}

// List handles GET /api/posts with category filter and pagination.
func (h *PostHandler) List(c *gin.Context) {
	filter := services.PostFilter{
		Category: c.Query("category"),
		Query:    c.Query("q"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))

	page, err := h.postService.List(c.Request.Context(), filter)
	if err != nil {
		RespondError(c, err)
		return
	}

	ratings := map[uint]*services.SellerRating{}
	posts := make([]PostResponse, 0, len(page.Posts))
	for _, post := range page.Posts {
		posts = append(posts, h.toResponse(c, post, ratings))
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":    posts,
		"has_next": page.HasNext,
		"has_prev": page.HasPrev,
		"page":     page.Page,
		"pages":    page.Pages,
		"total":    page.Total,
	})
}

// ListByUser handles GET /api/user/:telegram_id/posts.
func (h *PostHandler) ListByUser(c *gin.Context) {
	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		RespondError(c, services.ErrValidation)
		return
	}

	user, err := h.identityService.GetByTelegramID(telegramID)
	if err != nil {
		if err == services.ErrUserNotFound {
			c.JSON(http.StatusOK, gin.H{"posts": []PostResponse{}})
			return
		}
		RespondError(c, err)
		return
	}

	userPosts, err := h.postService.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}

	ratings := map[uint]*services.SellerRating{}
	posts := make([]PostResponse, 0, len(userPosts))
	for _, post := range userPosts {
		posts = append(posts, h.toResponse(c, post, ratings))
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Categories handles GET /api/categories.
func (h *PostHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.Categories})
}
