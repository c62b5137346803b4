package database

import (
	"context"

	"github.com/yeremiapane/cafe-app/models"
	"gorm.io/gorm"
)

type MenuStore struct {
	db *gorm.DB
}

func NewMenuStore(db *gorm.DB) *MenuStore {
	return &MenuStore{db: db}
}

func (s *MenuStore) List(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Top returns the most ordered items first.
func (s *MenuStore) Top(ctx context.Context, limit int) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.WithContext(ctx).Order("orders desc").Order("id asc").Limit(limit).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *MenuStore) FindByID(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

func (s *MenuStore) Create(ctx context.Context, item *models.MenuItem) error {
	return translateError(s.db.WithContext(ctx).Create(item).Error)
}

// Save overwrites every column of an existing item.
func (s *MenuStore) Save(ctx context.Context, item *models.MenuItem) error {
	return translateError(s.db.WithContext(ctx).Save(item).Error)
}

func (s *MenuStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.MenuItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementOrders bumps the popularity counter used by Top.
func (s *MenuStore) IncrementOrders(ctx context.Context, id uint, quantity int) error {
	return s.db.WithContext(ctx).Model(&models.MenuItem{}).
		Where("id = ?", id).
		UpdateColumn("orders", gorm.Expr("orders + ?", quantity)).Error
}
