package models

import (
	"time"
)

// Review is a 1-5 rating a buyer leaves for a seller, tied to one post.
// Reviews are created pending and become publicly visible only after an
// admin approves them; rejection deletes the row.
type Review struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Rating      int        `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment     string     `json:"comment"`
	IsApproved  bool       `json:"is_approved" gorm:"default:false;index"`
	ModeratedBy *uint      `json:"moderated_by,omitempty"`
	ModeratedAt *time.Time `json:"moderated_at,omitempty"`
	BuyerID     uint       `json:"buyer_id" gorm:"not null;uniqueIndex:idx_review_buyer_post"`
	SellerID    uint       `json:"seller_id" gorm:"not null;index"`
	PostID      string     `json:"post_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_review_buyer_post"`
	CreatedAt   time.Time  `json:"created_at"`

	// Relations
	Buyer     User  `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Seller    User  `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Post      Post  `json:"post,omitempty" gorm:"foreignKey:PostID"`
	Moderator *User `json:"moderator,omitempty" gorm:"foreignKey:ModeratedBy"`
}

type CreateReviewRequest struct {
	UserData *TelegramUserData `json:"user_data"`
	PostID   string            `json:"post_id"`
	Rating   int               `json:"rating"`
	Comment  string            `json:"comment"`
}

type ModerateReviewRequest struct {
	UserData *TelegramUserData `json:"user_data"`
	Action   string            `json:"action"`
}
