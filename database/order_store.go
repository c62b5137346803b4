package database

import (
	"context"
	"time"

	"github.com/yeremiapane/cafe-app/models"
	"gorm.io/gorm"
)

type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

// Insert persists the order with its items; gorm assigns ID and CreatedAt.
func (s *OrderStore) Insert(ctx context.Context, o *models.Order) error {
	return translateError(s.db.WithContext(ctx).Create(o).Error)
}

func (s *OrderStore) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &o, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves the order from one status to another only if it is
// still in the expected one.
func (s *OrderStore) UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) error {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// CreditPoints marks the order's points as credited and adds them to the
// owner's balance in one transaction. ErrAlreadyCredited means the order was
// credited before; on any error neither row changes.
func (s *OrderStore) CreditPoints(ctx context.Context, orderID, userID uint, points int) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND points_credited = ?", orderID, false).
			Update("points_credited", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyCredited
		}

		res = tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"points":     gorm.Expr("points + ?", points),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&user, userID).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}
