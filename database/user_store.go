package database

import (
	"context"
	"strings"
	"time"

	"github.com/yeremiapane/cafe-app/models"
	"gorm.io/gorm"
)

// UserStore is the gorm backed credential store.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	u.Email = NormalizeEmail(u.Email)
	return translateError(s.db.WithContext(ctx).Create(u).Error)
}

func (s *UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (s *UserStore) FindByFullName(ctx context.Context, name string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("full_name = ?", strings.TrimSpace(name)).First(&u).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Update writes the given columns and returns the fresh record. Callers
// never pass "points": balances change only through ApplyPointsDelta.
func (s *UserStore) Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.User, error) {
	delete(fields, "points")
	if len(fields) > 0 {
		fields["updated_at"] = time.Now()
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, translateError(res.Error)
		}
	}
	return s.FindByID(ctx, id)
}

func (s *UserStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyPointsDelta adds delta (possibly negative) to the user's balance in
// one conditional UPDATE, so concurrent callers never lose an update and
// the balance never drops below zero.
func (s *UserStore) ApplyPointsDelta(ctx context.Context, id uint, delta int) (*models.User, error) {
	if delta == 0 {
		return s.FindByID(ctx, id)
	}
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND points + ? >= 0", id, delta).
			Updates(map[string]interface{}{
				"points":     gorm.Expr("points + ?", delta),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Select("id").First(&models.User{}, id).Error; err != nil {
				return err
			}
			return ErrInsufficientBalance
		}
		return tx.First(&user, id).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}
