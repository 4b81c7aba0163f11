package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tgbazaar/marketplace-backend/internal/api/middleware"
	"github.com/tgbazaar/marketplace-backend/internal/models"
	"github.com/tgbazaar/marketplace-backend/internal/services"
	"github.com/tgbazaar/marketplace-backend/internal/utils"
)

type ReviewHandler struct {
	reviewService   *services.ReviewService
	identityService *services.IdentityService
}

func NewReviewHandler(reviewService *services.ReviewService, identityService *services.IdentityService) *ReviewHandler {
	return &ReviewHandler{
		reviewService:   reviewService,
		identityService: identityService,
	}
}

// Create handles POST /api/review. New reviews are pending until an admin
// approves them.
func (h *ReviewHandler) Create(c *gin.Context) {
	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, services.ErrValidation)
		return
	}

	buyer, err := h.identityService.Resolve(req.UserData)
	if err != nil {
		RespondError(c, err)
		return
	}

	review, err := h.reviewService.Submit(c.Request.Context(), buyer, req)
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.SendSuccessFields(c, "Отзыв отправлен на модерацию! Он появится после проверки администратором.", gin.H{
		"review_id":        review.ID,
		"needs_moderation": true,
	})
}

// Moderate handles POST /api/review/:review_id/moderate, admin only.
func (h *ReviewHandler) Moderate(c *gin.Context) {
	reviewID, err := strconv.ParseUint(c.Param("review_id"), 10, 32)
	if err != nil {
		RespondError(c, services.ErrValidation)
		return
	}

	var req models.ModerateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, services.ErrValidation)
		return
	}

	moderator := middleware.CurrentUser(c)
	if moderator == nil && req.UserData.Valid() {
		user, err := h.identityService.Resolve(req.UserData)
		if err != nil {
			RespondError(c, err)
			return
		}
		moderator = user
	}

	if err := h.reviewService.Moderate(c.Request.Context(), moderator, uint(reviewID), req.Action); err != nil {
		RespondError(c, err)
		return
	}

	message := "Отзыв одобрен и опубликован"
	if req.Action == "reject" {
		message = "Отзыв отклонен и удален"
	}
	utils.SendSuccess(c, message, nil)
}

// ListApproved handles GET /api/reviews/approved?post_id=|user_id=.
func (h *ReviewHandler) ListApproved(c *gin.Context) {
	var (
		reviews []services.ReviewResponse
		err     error
	)

	switch {
	case c.Query("post_id") != "":
		reviews, err = h.reviewService.ListApprovedByPost(c.Request.Context(), c.Query("post_id"))
	case c.Query("user_id") != "":
		telegramID, parseErr := strconv.ParseInt(c.Query("user_id"), 10, 64)
		if parseErr != nil {
			RespondError(c, services.ErrValidation)
			return
		}
		var user *models.User
		user, err = h.identityService.GetByTelegramID(telegramID)
		if err == services.ErrUserNotFound {
			c.JSON(http.StatusOK, gin.H{"reviews": []services.ReviewResponse{}})
			return
		}
		if err == nil {
			reviews, err = h.reviewService.ListApprovedBySeller(c.Request.Context(), user.ID)
		}
	default:
		reviews, err = h.reviewService.ListApproved(c.Request.Context())
	}
	if err != nil {
		RespondError(c, err)
		return
	}
	if reviews == nil {
		reviews = []services.ReviewResponse{}
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// ListByUser handles GET /api/user/:telegram_id/reviews, approved reviews
// received by the user plus the derived rating aggregate.
func (h *ReviewHandler) ListByUser(c *gin.Context) {
	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		RespondError(c, services.ErrValidation)
		return
	}

	user, err := h.identityService.GetByTelegramID(telegramID)
	if err != nil {
		if err == services.ErrUserNotFound {
			c.JSON(http.StatusOK, gin.H{
				"reviews":        []services.ReviewResponse{},
				"average_rating": 0.0,
				"total_reviews":  0,
			})
			return
		}
		RespondError(c, err)
		return
	}

	reviews, err := h.reviewService.ListApprovedBySeller(c.Request.Context(), user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}

	rating, err := h.reviewService.RatingForSeller(c.Request.Context(), user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews":        reviews,
		"average_rating": rating.Average,
		"total_reviews":  rating.Count,
	})
}
