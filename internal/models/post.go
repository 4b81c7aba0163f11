// models/post.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID          string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Content     string    `json:"content" gorm:"not null"`
	Category    string    `json:"category" gorm:"not null;index"`
	Price       string    `json:"price"`
	ContactInfo string    `json:"contact_info" gorm:"not null"`
	ImageURL    string    `json:"image_url"`
	IsActive    bool      `json:"is_active" gorm:"default:true;index"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Author  User     `json:"author,omitempty" gorm:"foreignKey:UserID"`
	Reviews []Review `json:"reviews,omitempty" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Category holds one entry of the fixed listing category set.
type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Categories is the fixed, order-significant category enumeration.
var Categories = []Category{
	{Value: "услуги", Label: "Услуги"},
	{Value: "продажа", Label: "Продажа"},
	{Value: "даром", Label: "Отдам даром"},
	{Value: "поиск", Label: "Ищу"},
	{Value: "инфо", Label: "Информация"},
	{Value: "другое", Label: "Другое"},
}

func IsValidCategory(value string) bool {
	for _, c := range Categories {
		if c.Value == value {
			return true
		}
	}
	return false
}

// CategoryLabel maps a category value to its display label, falling back to
// the raw value for anything outside the enumeration.
func CategoryLabel(value string) string {
	for _, c := range Categories {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

// Request structs for API
type CreatePostRequest struct {
	UserData    *TelegramUserData `json:"user_data"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Category    string            `json:"category"`
	Price       string            `json:"price"`
	ContactInfo string            `json:"contact_info"`
	ImageURL    string            `json:"image_url"`
}

type UpdatePostRequest struct {
	UserData    *TelegramUserData `json:"user_data"`
	Title       *string           `json:"title,omitempty"`
	Content     *string           `json:"content,omitempty"`
	Category    *string           `json:"category,omitempty"`
	Price       *string           `json:"price,omitempty"`
	ContactInfo *string           `json:"contact_info,omitempty"`
	ImageURL    *string           `json:"image_url,omitempty"`
	IsActive    *bool             `json:"is_active,omitempty"`
}
