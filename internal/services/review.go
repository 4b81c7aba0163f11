package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tgbazaar/marketplace-backend/internal/models"
	"github.com/tgbazaar/marketplace-backend/internal/utils"
	"gorm.io/gorm"
)

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	if db == nil {
		panic("database connection cannot be nil")
	}
	return &ReviewService{db: db}
}

// ReviewResponse is the public shape of an approved review.
type ReviewResponse struct {
	ID            uint   `json:"id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
	CreatedAt     string `json:"created_at"`
	BuyerName     string `json:"buyer_name"`
	BuyerUsername string `json:"buyer_username,omitempty"`
	PostTitle     string `json:"post_title"`
	IsApproved    bool   `json:"is_approved"`
}

// SellerRating is the derived aggregate over a seller's approved reviews.
// Recomputed on every read; review volume per seller is small.
type SellerRating struct {
	Average float64 `json:"average_rating"`
	Count   int64   `json:"total_reviews"`
}

// Submit records a pending review from buyer against the given post.
// The (buyer, post) uniqueness is enforced twice: a pre-check for the common
// case and the unique index for concurrent submissions.
func (s *ReviewService) Submit(ctx context.Context, buyer *models.User, req models.CreateReviewRequest) (*models.Review, error) {
	if buyer == nil {
		return nil, validationError("user data is required")
	}
	if req.PostID == "" {
		return nil, validationError("post_id is required")
	}

	review := &models.Review{
		Rating:  req.Rating,
		Comment: utils.SanitizeText(req.Comment),
		BuyerID: buyer.ID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Where("id = ?", req.PostID).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return fmt.Errorf("%w: failed to fetch post: %v", ErrDatabaseQuery, err)
		}

		if post.UserID == buyer.ID {
			return ErrSelfReview
		}

		var count int64
		if err := tx.Model(&models.Review{}).
			Where("buyer_id = ? AND post_id = ?", buyer.ID, post.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("%w: failed to check existing review: %v", ErrDatabaseQuery, err)
		}
		if count > 0 {
			return ErrDuplicateReview
		}

		if !utils.IsValidRating(req.Rating) {
			return validationError("rating must be between 1 and 5")
		}

		review.SellerID = post.UserID
		review.PostID = post.ID

		if err := tx.Create(review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateReview
			}
			return fmt.Errorf("%w: failed to create review: %v", ErrDatabaseQuery, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return review, nil
}

// Moderate applies an admin decision to a pending review: approve makes it
// public and records who decided and when, reject deletes the row. A review
// that has already been approved cannot be moderated again.
func (s *ReviewService) Moderate(ctx context.Context, moderator *models.User, reviewID uint, action string) error {
	if moderator == nil || !moderator.IsAdmin {
		return ErrPermissionDenied
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.Where("id = ?", reviewID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return fmt.Errorf("%w: failed to fetch review: %v", ErrDatabaseQuery, err)
		}

		switch action {
		case "approve":
			if review.IsApproved {
				return ErrAlreadyModerated
			}
			now := time.Now().UTC()
			updates := map[string]interface{}{
				"is_approved":  true,
				"moderated_by": moderator.ID,
				"moderated_at": now,
			}
			if err := tx.Model(&review).Updates(updates).Error; err != nil {
				return fmt.Errorf("%w: failed to approve review: %v", ErrDatabaseQuery, err)
			}
			return nil
		case "reject":
			if review.IsApproved {
				return ErrAlreadyModerated
			}
			if err := tx.Delete(&review).Error; err != nil {
				return fmt.Errorf("%w: failed to reject review: %v", ErrDatabaseQuery, err)
			}
			return nil
		default:
			return validationError("invalid action %q, use 'approve' or 'reject'", action)
		}
	})
}

// ListApproved returns every approved review, newest first.
func (s *ReviewService) ListApproved(ctx context.Context) ([]ReviewResponse, error) {
	return s.listApproved(ctx, s.db.WithContext(ctx))
}

// ListApprovedByPost returns approved reviews for one post, newest first.
func (s *ReviewService) ListApprovedByPost(ctx context.Context, postID string) ([]ReviewResponse, error) {
	return s.listApproved(ctx, s.db.WithContext(ctx).Where("post_id = ?", postID))
}

// ListApprovedBySeller returns approved reviews received by a seller,
// newest first.
func (s *ReviewService) ListApprovedBySeller(ctx context.Context, sellerID uint) ([]ReviewResponse, error) {
	return s.listApproved(ctx, s.db.WithContext(ctx).Where("seller_id = ?", sellerID))
}

func (s *ReviewService) listApproved(ctx context.Context, query *gorm.DB) ([]ReviewResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	var reviews []models.Review
	if err := query.WithContext(ctx).
		Preload("Buyer").
		Preload("Post").
		Where("is_approved = ?", true).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to fetch reviews: %v", ErrDatabaseQuery, err)
	}

	responses := make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		responses = append(responses, toReviewResponse(review))
	}
	return responses, nil
}

// HasReviewed reports whether the buyer already left a review (approved or
// pending) for the post.
func (s *ReviewService) HasReviewed(ctx context.Context, buyerID uint, postID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Review{}).
		Where("buyer_id = ? AND post_id = ?", buyerID, postID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("%w: failed to check review: %v", ErrDatabaseQuery, err)
	}
	return count > 0, nil
}

// ListPending returns the moderation queue, newest first.
func (s *ReviewService) ListPending(ctx context.Context) ([]models.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	reviews := []models.Review{}
	if err := s.db.WithContext(ctx).
		Preload("Buyer").
		Preload("Seller").
		Preload("Post").
		Where("is_approved = ?", false).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to fetch pending reviews: %v", ErrDatabaseQuery, err)
	}
	return reviews, nil
}

// RatingForSeller computes the seller's average rating (one decimal) and
// review count over approved reviews only. Zero reviews means (0, 0).
func (s *ReviewService) RatingForSeller(ctx context.Context, sellerID uint) (*SellerRating, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	var result struct {
		Average *float64
		Count   int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Review{}).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Where("seller_id = ? AND is_approved = ?", sellerID, true).
		Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to compute rating: %v", ErrDatabaseQuery, err)
	}

	rating := &SellerRating{Count: result.Count}
	if result.Average != nil {
		rating.Average = math.Round(*result.Average*10) / 10
	}
	return rating, nil
}

func toReviewResponse(review models.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:         review.ID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt.Format("02.01.2006"),
		BuyerName:  review.Buyer.DisplayName(),
		PostTitle:  review.Post.Title,
		IsApproved: review.IsApproved,
	}
	if review.Buyer.Username != "" {
		resp.BuyerUsername = "@" + review.Buyer.Username
	}
	return resp
}
