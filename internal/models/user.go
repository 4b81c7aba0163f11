package models

import (
	"time"
)

type User struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TelegramID int64     `json:"telegram_id" gorm:"uniqueIndex;not null"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Phone      string    `json:"phone"`
	IsAdmin    bool      `json:"is_admin" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Posts           []Post   `json:"posts,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ReviewsReceived []Review `json:"reviews_received,omitempty" gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE"`
	ReviewsGiven    []Review `json:"reviews_given,omitempty" gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE"`
}

// DisplayName returns the best available human-readable name.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "Аноним"
}

// TelegramUserData is the identity payload the Mini App client sends on every
// request, either as a "user_data" field in the JSON body or as a
// JSON-encoded "user_data" query parameter. It is trusted as-is: this service
// performs no verification of Telegram's signed init data.
type TelegramUserData struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (d *TelegramUserData) Valid() bool {
	return d != nil && d.ID != 0
}
