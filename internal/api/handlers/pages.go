package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tgbazaar/marketplace-backend/internal/api/middleware"
	"github.com/tgbazaar/marketplace-backend/internal/services"
)

// PageHandler serves the HTML views of the Mini App.
type PageHandler struct {
	postService   *services.PostService
	reviewService *services.ReviewService
}

func NewPageHandler(postService *services.PostService, reviewService *services.ReviewService) *PageHandler {
	return &PageHandler{
		postService:   postService,
		reviewService: reviewService,
	}
}

// Index renders the landing page with the latest listings.
func (h *PageHandler) Index(c *gin.Context) {
	page, err := h.postService.List(c.Request.Context(), services.PostFilter{PerPage: 10})
	if err != nil {
		RenderNotFound(c)
		return
	}
	Render(c, http.StatusOK, "index.html", gin.H{"Posts": page.Posts})
}

// Home redirects to the landing page.
func (h *PageHandler) Home(c *gin.Context) {
	c.Redirect(http.StatusFound, "/")
}

// Posts renders the paginated listing feed, optionally category-filtered.
func (h *PageHandler) Posts(c *gin.Context) {
	filter := services.PostFilter{Category: c.Query("category")}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))

	page, err := h.postService.List(c.Request.Context(), filter)
	if err != nil {
		RenderNotFound(c)
		return
	}

	Render(c, http.StatusOK, "posts.html", gin.H{
		"Page":            page,
		"CurrentCategory": filter.Category,
	})
}

// PostDetail renders one listing with its approved reviews. Inactive posts
// 404 for everyone but the author.
func (h *PageHandler) PostDetail(c *gin.Context) {
	currentUser := middleware.CurrentUser(c)

	post, err := h.postService.GetByID(c.Request.Context(), c.Param("post_id"), currentUser)
	if err != nil {
		RenderNotFound(c)
		return
	}

	reviews, err := h.reviewService.ListApprovedByPost(c.Request.Context(), post.ID)
	if err != nil {
		reviews = nil
	}

	canReview := false
	if currentUser != nil && currentUser.ID != post.UserID {
		reviewed, err := h.reviewService.HasReviewed(c.Request.Context(), currentUser.ID, post.ID)
		canReview = err == nil && !reviewed
	}

	Render(c, http.StatusOK, "post_detail.html", gin.H{
		"Post":      post,
		"Reviews":   reviews,
		"CanReview": canReview,
	})
}

// MyPosts renders the current user's listings page; the data itself is
// fetched client-side via /api/user/:telegram_id/posts.
func (h *PageHandler) MyPosts(c *gin.Context) {
	Render(c, http.StatusOK, "my_posts.html", nil)
}

// Search renders full-text search results over active listings.
func (h *PageHandler) Search(c *gin.Context) {
	filter := services.PostFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))

	page, err := h.postService.List(c.Request.Context(), filter)
	if err != nil {
		RenderNotFound(c)
		return
	}

	Render(c, http.StatusOK, "search.html", gin.H{
		"Page":            page,
		"SearchQuery":     filter.Query,
		"CurrentCategory": filter.Category,
	})
}

// About renders the static about page.
func (h *PageHandler) About(c *gin.Context) {
	Render(c, http.StatusOK, "about.html", nil)
}

// AdminReviews renders the pending moderation queue, admin only.
func (h *PageHandler) AdminReviews(c *gin.Context) {
	currentUser := middleware.CurrentUser(c)
	if currentUser == nil || !currentUser.IsAdmin {
		RenderForbidden(c)
		return
	}

	reviews, err := h.reviewService.ListPending(c.Request.Context())
	if err != nil {
		RenderNotFound(c)
		return
	}

	Render(c, http.StatusOK, "admin_reviews.html", gin.H{"Reviews": reviews})
}

// NotFound is the fallback for unknown routes.
func (h *PageHandler) NotFound(c *gin.Context) {
	RenderNotFound(c)
}
