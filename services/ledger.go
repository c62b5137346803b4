package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-app/database"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

// ErrAlreadyCredited is returned by CreditOrder when the order's points
// were credited before.
var ErrAlreadyCredited = database.ErrAlreadyCredited

// PointsLedger owns every change to a user's loyalty balance. Same-user
// operations are serialized in process and the store applies each delta
// with a single conditional update, so no credit or debit is ever lost.
type PointsLedger struct {
	users   CredentialStore
	credits OrderCredits
	mu      sync.Map // user id -> *sync.Mutex
}

func NewPointsLedger(users CredentialStore, credits OrderCredits) *PointsLedger {
	return &PointsLedger{users: users, credits: credits}
}

func (l *PointsLedger) getMutex(userID uint) *sync.Mutex {
	mu, _ := l.mu.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Credit grants delta >= 0 points and returns the user with the new balance.
func (l *PointsLedger) Credit(ctx context.Context, userID uint, delta int) (*models.User, error) {
	if delta < 0 {
		return nil, utils.NewValidationError(utils.ReasonInvalidInput, "credit amount must not be negative")
	}
	return l.apply(ctx, userID, delta)
}

// Debit takes amount >= 0 points away, rejecting overdrafts.
func (l *PointsLedger) Debit(ctx context.Context, userID uint, amount int) (*models.User, error) {
	if amount < 0 {
		return nil, utils.NewValidationError(utils.ReasonInvalidInput, "debit amount must not be negative")
	}
	return l.apply(ctx, userID, -amount)
}

// Adjust applies a signed staff correction through the same atomic path.
func (l *PointsLedger) Adjust(ctx context.Context, userID uint, delta int) (*models.User, error) {
	return l.apply(ctx, userID, delta)
}

func (l *PointsLedger) apply(ctx context.Context, userID uint, delta int) (*models.User, error) {
	mu := l.getMutex(userID)
	mu.Lock()
	defer mu.Unlock()

	user, err := l.users.ApplyPointsDelta(ctx, userID, delta)
	switch {
	case err == nil:
	case errors.Is(err, database.ErrNotFound):
		return nil, utils.NewNotFoundError(utils.ReasonUserNotFound, "user not found")
	case errors.Is(err, database.ErrInsufficientBalance):
		return nil, utils.NewValidationError(utils.ReasonInsufficientBalance, "insufficient points balance")
	default:
		return nil, fmt.Errorf("apply points delta: %w", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"user_id": userID,
		"delta":   delta,
		"balance": user.Points,
	}).Info("points balance updated")
	return user, nil
}

// CreditOrder credits an order's earned points exactly once. The order is
// marked and the balance raised in one transaction that ignores ctx
// cancellation.
func (l *PointsLedger) CreditOrder(ctx context.Context, order *models.Order) (*models.User, error) {
	if order.PointsEarned <= 0 {
		// zero-point orders are stored as credited
		return nil, ErrAlreadyCredited
	}

	mu := l.getMutex(order.UserID)
	mu.Lock()
	defer mu.Unlock()

	user, err := l.credits.CreditPoints(context.WithoutCancel(ctx), order.ID, order.UserID, order.PointsEarned)
	switch {
	case err == nil:
	case errors.Is(err, database.ErrAlreadyCredited):
		return nil, ErrAlreadyCredited
	case errors.Is(err, database.ErrNotFound):
		return nil, utils.NewNotFoundError(utils.ReasonUserNotFound, "user not found")
	default:
		return nil, fmt.Errorf("credit order points: %w", err)
	}

	order.PointsCredited = true
	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"delta":    order.PointsEarned,
		"balance":  user.Points,
	}).Info("order points credited")
	return user, nil
}
