// Package localstore is the legacy local-database path. The upstream owns
// carts and addresses for authenticated users; these tables persist what
// never moved upstream (user records, payment methods) and act as a
// keyed-by-user fallback for the rest.
package localstore

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ponchomart/storefront/internal/models"
)

var ErrNotFound = errors.New("localstore: record not found")

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) UserByLoginID(loginID string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("login_id = ?", loginID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("localstore: %w", err)
	}
	return &user, nil
}

func (s *Store) InsertUser(user *models.User) error {
	if err := s.DB.Create(user).Error; err != nil {
		return fmt.Errorf("localstore: %w", err)
	}
	return nil
}

// UpdateUser rewrites the profile fields only; the password hash stays as is.
func (s *Store) UpdateUser(user *models.User) error {
	res := s.DB.Model(&models.User{}).
		Where("id = ?", user.ID).
		Select("name", "email", "login_id").
		Updates(user)
	if res.Error != nil {
		return fmt.Errorf("localstore: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) PaymentsByUser(userID string) ([]models.PaymentMethod, error) {
	var out []models.PaymentMethod
	if err := s.DB.Where("user_id = ?", userID).
		Order("is_default DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("localstore: %w", err)
	}
	return out, nil
}

func (s *Store) InsertPayment(p *models.PaymentMethod) error {
	if p.IsDefault {
		if err := s.DB.Model(&models.PaymentMethod{}).
			Where("user_id = ?", p.UserID).
			Update("is_default", false).Error; err != nil {
			return fmt.Errorf("localstore: %w", err)
		}
	}
	if err := s.DB.Create(p).Error; err != nil {
		return fmt.Errorf("localstore: %w", err)
	}
	return nil
}

func (s *Store) UpdatePayment(p *models.PaymentMethod) error {
	res := s.DB.Model(&models.PaymentMethod{}).
		Where("id = ? AND user_id = ?", p.ID, p.UserID).
		Updates(p)
	if res.Error != nil {
		return fmt.Errorf("localstore: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeletePayment(userID string, id uint) error {
	res := s.DB.Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.PaymentMethod{})
	if res.Error != nil {
		return fmt.Errorf("localstore: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CartItemsByUser(userID string) ([]models.FallbackCartItem, error) {
	var out []models.FallbackCartItem
	if err := s.DB.Where("user_id = ?", userID).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("localstore: %w", err)
	}
	return out, nil
}

func (s *Store) InsertCartItem(item *models.FallbackCartItem) error {
	if err := s.DB.Create(item).Error; err != nil {
		return fmt.Errorf("localstore: %w", err)
	}
	return nil
}

func (s *Store) UpdateCartItem(item *models.FallbackCartItem) error {
	res := s.DB.Model(&models.FallbackCartItem{}).
		Where("id = ? AND user_id = ?", item.ID, item.UserID).
		Updates(item)
	if res.Error != nil {
		return fmt.Errorf("localstore: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteCartItem(userID string, id uint) error {
	res := s.DB.Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.FallbackCartItem{})
	if res.Error != nil {
		return fmt.Errorf("localstore: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceCartItems swaps a user's fallback cart snapshot in one transaction.
func (s *Store) ReplaceCartItems(userID string, items []models.FallbackCartItem) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).
			Delete(&models.FallbackCartItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = 0
			items[i].UserID = userID
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return fmt.Errorf("localstore: %w", err)
	}
	return nil
}

func (s *Store) AddressesByUser(userID string) ([]models.FallbackAddress, error) {
	var out []models.FallbackAddress
	if err := s.DB.Where("user_id = ?", userID).
		Order("is_default DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("localstore: %w", err)
	}
	return out, nil
}

func (s *Store) InsertAddress(addr *models.FallbackAddress) error {
	if addr.IsDefault {
		if err := s.DB.Model(&models.FallbackAddress{}).
			Where("user_id = ?", addr.UserID).
			Update("is_default", false).Error; err != nil {
			return fmt.Errorf("localstore: %w", err)
		}
	}
	if err := s.DB.Create(addr).Error; err != nil {
		return fmt.Errorf("localstore: %w", err)
	}
	return nil
}

func (s *Store) UpdateAddress(addr *models.FallbackAddress) error {
	res := s.DB.Model(&models.FallbackAddress{}).
		Where("id = ? AND user_id = ?", addr.ID, addr.UserID).
		Updates(addr)
	if res.Error != nil {
		return fmt.Errorf("localstore: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceAddresses swaps a user's fallback address snapshot of one kind.
func (s *Store) ReplaceAddresses(userID, kind string, addrs []models.FallbackAddress) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND kind = ?", userID, kind).
			Delete(&models.FallbackAddress{}).Error; err != nil {
			return err
		}
		for i := range addrs {
			addrs[i].ID = 0
			addrs[i].UserID = userID
			addrs[i].Kind = kind
		}
		if len(addrs) == 0 {
			return nil
		}
		return tx.Create(&addrs).Error
	})
	if err != nil {
		return fmt.Errorf("localstore: %w", err)
	}
	return nil
}

func (s *Store) DeleteAddress(userID string, id uint) error {
	res := s.DB.Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.FallbackAddress{})
	if res.Error != nil {
		return fmt.Errorf("localstore: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
