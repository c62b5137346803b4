package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-app/database"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

type RewardService struct {
	rewards RewardRepository
	ledger  *PointsLedger
}

func NewRewardService(rewards RewardRepository, ledger *PointsLedger) *RewardService {
	return &RewardService{rewards: rewards, ledger: ledger}
}

func (s *RewardService) List(ctx context.Context) ([]models.Reward, error) {
	rewards, err := s.rewards.List(ctx)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return rewards, nil
}

func (s *RewardService) Create(ctx context.Context, r *models.Reward) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return utils.NewValidationError(utils.ReasonInvalidInput, "reward name is required")
	}
	if r.PointsRequired <= 0 {
		return utils.NewValidationError(utils.ReasonInvalidInput, "pointsRequired must be greater than zero")
	}
	if err := s.rewards.Create(ctx, r); err != nil {
		return utils.NewInternalError(err)
	}
	return nil
}

// Redeem debits the reward's price from the user's balance.
func (s *RewardService) Redeem(ctx context.Context, userID, rewardID uint) (*models.User, *models.Reward, error) {
	reward, err := s.rewards.FindByID(ctx, rewardID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, utils.NewNotFoundError(utils.ReasonNotFound, "reward not found")
		}
		return nil, nil, utils.NewInternalError(err)
	}
	if !reward.Available {
		return nil, nil, utils.NewValidationError(utils.ReasonInvalidInput, "reward is not available")
	}
	user, err := s.ledger.Debit(ctx, userID, reward.PointsRequired)
	if err != nil {
		return nil, nil, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"user_id":   userID,
		"reward_id": reward.ID,
		"points":    reward.PointsRequired,
	}).Info("reward redeemed")
	return user, reward, nil
}
