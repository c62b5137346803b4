package services

import (
	"context"

	"github.com/yeremiapane/cafe-app/models"
)

// CredentialStore is the narrow view of user persistence the auth flow and
// the ledger depend on.
type CredentialStore interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ApplyPointsDelta(ctx context.Context, id uint, delta int) (*models.User, error)
}

type UserRepository interface {
	CredentialStore
	FindByFullName(ctx context.Context, name string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.User, error)
	Delete(ctx context.Context, id uint) error
}

// OrderCredits credits an order's points to its owner at most once.
type OrderCredits interface {
	CreditPoints(ctx context.Context, orderID, userID uint, points int) (*models.User, error)
}

type OrderRepository interface {
	OrderCredits
	Insert(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) error
}

type MenuCounter interface {
	IncrementOrders(ctx context.Context, id uint, quantity int) error
}

type RewardRepository interface {
	List(ctx context.Context) ([]models.Reward, error)
	FindByID(ctx context.Context, id uint) (*models.Reward, error)
	Create(ctx context.Context, r *models.Reward) error
}

// EventPublisher receives order events. Implementations must not block the
// caller for long; failures are the publisher's to log.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.OrderEvent)
}

// MultiPublisher fans an event out to every non-nil publisher.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, ev models.OrderEvent) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, ev)
		}
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, models.OrderEvent) {}
