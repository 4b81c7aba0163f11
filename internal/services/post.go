package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tgbazaar/marketplace-backend/internal/models"
	"github.com/tgbazaar/marketplace-backend/internal/utils"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	QueryTimeout    = 30 * time.Second
)

var ErrDatabaseQuery = errors.New("database query failed")

type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	if db == nil {
		panic("database connection cannot be nil")
	}
	return &PostService{db: db}
}

// PostFilter selects a page of active posts. Query, when set, matches
// title or content case-insensitively.
type PostFilter struct {
	Category string `form:"category"`
	Query    string `form:"q"`
	Page     int    `form:"page"`
	PerPage  int    `form:"per_page"`
}

func (f *PostFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = DefaultPageSize
	}
	if f.PerPage > MaxPageSize {
		f.PerPage = MaxPageSize
	}
	f.Category = strings.TrimSpace(f.Category)
	f.Query = strings.TrimSpace(f.Query)
}

type PostPage struct {
	Posts   []models.Post
	Total   int64
	Page    int
	PerPage int
	Pages   int
	HasNext bool
	HasPrev bool
}

// Create validates and persists a new listing owned by author.
func (s *PostService) Create(ctx context.Context, author *models.User, req models.CreatePostRequest) (*models.Post, error) {
	if author == nil {
		return nil, validationError("user data is required")
	}

	title := utils.SanitizeText(req.Title)
	content := utils.SanitizeText(req.Content)
	contactInfo := utils.SanitizeText(req.ContactInfo)
	category := strings.TrimSpace(req.Category)

	if title == "" {
		return nil, validationError("title is required")
	}
	if content == "" {
		return nil, validationError("content is required")
	}
	if contactInfo == "" {
		return nil, validationError("contact_info is required")
	}
	if category == "" {
		return nil, validationError("category is required")
	}
	if !models.IsValidCategory(category) {
		return nil, validationError("unknown category %q", category)
	}

	post := &models.Post{
		Title:       title,
		Content:     content,
		Category:    category,
		Price:       strings.TrimSpace(req.Price),
		ContactInfo: contactInfo,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		IsActive:    true,
		UserID:      author.ID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(post).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create post: %v", ErrDatabaseQuery, err)
	}

	post.Author = *author
	return post, nil
}

// GetByID fetches a single listing. An inactive post stays visible to its
// author and to no one else.
func (s *PostService) GetByID(ctx context.Context, id string, requester *models.User) (*models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	var post models.Post
	err := s.db.WithContext(ctx).Preload("Author").Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch post: %v", ErrDatabaseQuery, err)
	}

	if !post.IsActive && (requester == nil || requester.ID != post.UserID) {
		return nil, ErrPostNotFound
	}

	return &post, nil
}

// List returns one page of active posts, newest first, with pagination
// metadata. An unknown category filter yields an empty page, not an error.
func (s *PostService) List(ctx context.Context, filter PostFilter) (*PostPage, error) {
	filter.Normalize()

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	query := s.db.WithContext(ctx).Model(&models.Post{}).Where("is_active = ?", true)
	query = s.applyFilters(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to count posts: %v", ErrDatabaseQuery, err)
	}

	page := &PostPage{
		Posts:   []models.Post{},
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
	}
	page.Pages = int(total) / filter.PerPage
	if int(total)%filter.PerPage > 0 {
		page.Pages++
	}
	page.HasPrev = filter.Page > 1
	page.HasNext = filter.Page < page.Pages

	if total == 0 {
		return page, nil
	}

	offset := (filter.Page - 1) * filter.PerPage
	if err := query.
		Preload("Author").
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.PerPage).
		Find(&page.Posts).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to fetch posts: %v", ErrDatabaseQuery, err)
	}

	return page, nil
}

// ListByUser returns every post owned by the user, inactive ones included,
// newest first.
func (s *PostService) ListByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	posts := []models.Post{}
	if err := s.db.WithContext(ctx).
		Preload("Author").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to fetch user posts: %v", ErrDatabaseQuery, err)
	}
	return posts, nil
}

// Update applies only the fields present in the request and re-stamps the
// modification time. Only the author may update a post.
func (s *PostService) Update(ctx context.Context, id string, requester *models.User, req models.UpdatePostRequest) (*models.Post, error) {
	var post models.Post

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return fmt.Errorf("%w: failed to fetch post: %v", ErrDatabaseQuery, err)
		}

		if requester == nil || requester.ID != post.UserID {
			return ErrPermissionDenied
		}

		updates := map[string]interface{}{}

		if req.Title != nil {
			title := utils.SanitizeText(*req.Title)
			if title == "" {
				return validationError("title cannot be empty")
			}
			updates["title"] = title
		}
		if req.Content != nil {
			content := utils.SanitizeText(*req.Content)
			if content == "" {
				return validationError("content cannot be empty")
			}
			updates["content"] = content
		}
		if req.Category != nil {
			category := strings.TrimSpace(*req.Category)
			if !models.IsValidCategory(category) {
				return validationError("unknown category %q", category)
			}
			updates["category"] = category
		}
		if req.Price != nil {
			updates["price"] = strings.TrimSpace(*req.Price)
		}
		if req.ContactInfo != nil {
			contactInfo := utils.SanitizeText(*req.ContactInfo)
			if contactInfo == "" {
				return validationError("contact_info cannot be empty")
			}
			updates["contact_info"] = contactInfo
		}
		if req.ImageURL != nil {
			updates["image_url"] = strings.TrimSpace(*req.ImageURL)
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}

		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now().UTC()

		if err := tx.Model(&post).Updates(updates).Error; err != nil {
			return fmt.Errorf("%w: failed to update post: %v", ErrDatabaseQuery, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id, requester)
}

// Delete removes a post and its reviews. Only the author may delete.
func (s *PostService) Delete(ctx context.Context, id string, requester *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Where("id = ?", id).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return fmt.Errorf("%w: failed to fetch post: %v", ErrDatabaseQuery, err)
		}

		if requester == nil || requester.ID != post.UserID {
			return ErrPermissionDenied
		}

		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("%w: failed to delete post reviews: %v", ErrDatabaseQuery, err)
		}
		if err := tx.Delete(&post).Error; err != nil {
			return fmt.Errorf("%w: failed to delete post: %v", ErrDatabaseQuery, err)
		}
		return nil
	})
}

func (s *PostService) applyFilters(query *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Query != "" {
		term := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", term, term)
	}
	return query
}
