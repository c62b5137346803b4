package database

import (
	"context"

	"github.com/yeremiapane/cafe-app/models"
	"gorm.io/gorm"
)

type RewardStore struct {
	db *gorm.DB
}

func NewRewardStore(db *gorm.DB) *RewardStore {
	return &RewardStore{db: db}
}

func (s *RewardStore) List(ctx context.Context) ([]models.Reward, error) {
	var rewards []models.Reward
	if err := s.db.WithContext(ctx).Order("points_required asc").Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}

func (s *RewardStore) FindByID(ctx context.Context, id uint) (*models.Reward, error) {
	var r models.Reward
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &r, nil
}

func (s *RewardStore) Create(ctx context.Context, r *models.Reward) error {
	return translateError(s.db.WithContext(ctx).Create(r).Error)
}
