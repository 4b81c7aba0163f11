package services

import (
	"errors"

	"github.com/tgbazaar/marketplace-backend/internal/models"
	"gorm.io/gorm"
)

// IdentityService maps the Telegram-supplied identity tuple to a persisted
// user row. The payload is trusted as-is (no init-data signature check); the
// trust boundary of the whole service lives here.
type IdentityService struct {
	db              *gorm.DB
	adminTelegramID int64
}

func NewIdentityService(db *gorm.DB, adminTelegramID int64) *IdentityService {
	if db == nil {
		panic("database connection cannot be nil")
	}
	return &IdentityService{db: db, adminTelegramID: adminTelegramID}
}

// Resolve returns the user for the given identity payload, creating one if
// no row carries that telegram_id. Idempotent, safe to call on every
// request. A missing or malformed payload yields (nil, nil): "no current
// user" is not an error.
func (s *IdentityService) Resolve(data *models.TelegramUserData) (*models.User, error) {
	if !data.Valid() {
		return nil, nil
	}

	var user models.User
	err := s.db.Where("telegram_id = ?", data.ID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			TelegramID: data.ID,
			Username:   data.Username,
			FirstName:  data.FirstName,
			LastName:   data.LastName,
			IsAdmin:    s.adminTelegramID != 0 && data.ID == s.adminTelegramID,
		}
		// FirstOrCreate absorbs the race where two requests resolve the
		// same new identity at once.
		if err := s.db.Where("telegram_id = ?", data.ID).FirstOrCreate(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	if s.adminTelegramID != 0 && user.TelegramID == s.adminTelegramID && !user.IsAdmin {
		if err := s.db.Model(&user).Update("is_admin", true).Error; err != nil {
			return nil, err
		}
		user.IsAdmin = true
	}

	return &user, nil
}

// GetByTelegramID fetches an existing user without creating one.
func (s *IdentityService) GetByTelegramID(telegramID int64) (*models.User, error) {
	var user models.User
	if err := s.db.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
