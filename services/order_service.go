package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-app/database"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

type CreateOrderInput struct {
	UserID      uint
	Items       []models.OrderItem
	TableNumber *int
	// ClientTotal is what the client claimed; it is only compared, never stored.
	ClientTotal *int64
}

// OrderService drives the order lifecycle and hands earned points to the
// ledger.
type OrderService struct {
	users   CredentialStore
	orders  OrderRepository
	menu    MenuCounter
	ledger  *PointsLedger
	events  EventPublisher
	monitor *PointsMonitor
}

func NewOrderService(users CredentialStore, orders OrderRepository, menu MenuCounter, ledger *PointsLedger, events EventPublisher, monitor *PointsMonitor) *OrderService {
	if events == nil {
		events = noopPublisher{}
	}
	return &OrderService{
		users:   users,
		orders:  orders,
		menu:    menu,
		ledger:  ledger,
		events:  events,
		monitor: monitor,
	}
}

func validateItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return utils.NewValidationError(utils.ReasonInvalidOrder, "order must contain at least one item")
	}
	var total int64
	for i, item := range items {
		if item.Quantity <= 0 {
			return utils.NewValidationError(utils.ReasonInvalidOrder, fmt.Sprintf("item %d: quantity must be greater than zero", i))
		}
		if item.Price < 0 {
			return utils.NewValidationError(utils.ReasonInvalidOrder, fmt.Sprintf("item %d: price must not be negative", i))
		}
		if item.Price > math.MaxInt64/int64(item.Quantity) {
			return utils.NewValidationError(utils.ReasonInvalidOrder, fmt.Sprintf("item %d: line total is too large", i))
		}
		line := int64(item.Quantity) * item.Price
		if total > math.MaxInt64-line {
			return utils.NewValidationError(utils.ReasonInvalidOrder, "order total is too large")
		}
		total += line
	}
	return nil
}

// CreateOrder validates, prices and stores a pending order, then credits the
// owner. A failed credit is logged and queued for retry; the order stands.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, in.UserID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, utils.NewNotFoundError(utils.ReasonUserNotFound, "user not found")
		}
		return nil, utils.NewInternalError(err)
	}

	items := make([]models.OrderItem, len(in.Items))
	for i, item := range in.Items {
		items[i] = models.OrderItem{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Price:      item.Price,
			Notes:      item.Notes,
		}
	}
	total := models.ComputeTotal(items)
	if in.ClientTotal != nil && *in.ClientTotal != total {
		utils.InfoLogger.WithFields(logrus.Fields{
			"user_id":      in.UserID,
			"client_total": *in.ClientTotal,
			"total":        total,
		}).Warn("client total ignored")
	}

	order := &models.Order{
		UserID:       in.UserID,
		Items:        items,
		Total:        total,
		Status:       models.OrderPending,
		TableNumber:  in.TableNumber,
		PointsEarned: models.PointsFor(total),
	}
	order.PointsCredited = order.PointsEarned == 0
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, utils.NewInternalError(err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.Total,
		"points":   order.PointsEarned,
	}).Info("order created")
	s.events.Publish(ctx, models.OrderEvent{
		Event:     models.EventOrderCreated,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    string(order.Status),
		Total:     order.Total,
		Points:    order.PointsEarned,
		Order:     order,
		Timestamp: time.Now(),
	})

	s.bumpMenuCounters(ctx, items)
	// the order is stored; finish crediting even if the client went away
	s.creditPoints(context.WithoutCancel(ctx), order)
	return order, nil
}

func (s *OrderService) bumpMenuCounters(ctx context.Context, items []models.OrderItem) {
	if s.menu == nil {
		return
	}
	for _, item := range items {
		if item.MenuItemID == 0 {
			continue
		}
		if err := s.menu.IncrementOrders(ctx, item.MenuItemID, item.Quantity); err != nil && !errors.Is(err, database.ErrNotFound) {
			utils.ErrorLogger.WithField("menu_item_id", item.MenuItemID).Errorf("increment menu orders: %v", err)
		}
	}
}

func (s *OrderService) creditPoints(ctx context.Context, order *models.Order) {
	if order.PointsEarned == 0 {
		return
	}
	user, err := s.ledger.CreditOrder(ctx, order)
	if err != nil {
		if errors.Is(err, ErrAlreadyCredited) {
			return
		}
		utils.ErrorLogger.WithFields(logrus.Fields{
			"order_id": order.ID,
			"user_id":  order.UserID,
			"delta":    order.PointsEarned,
		}).Errorf("points credit failed: %v", err)
		if s.monitor != nil {
			s.monitor.RecordCredit(false)
			s.monitor.AddToRetryQueue(order.ID)
		}
		return
	}
	if s.monitor != nil {
		s.monitor.RecordCredit(true)
	}
	balance := user.Points
	s.events.Publish(ctx, models.OrderEvent{
		Event:     models.EventPointsCredited,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Points:    order.PointsEarned,
		Balance:   &balance,
		Timestamp: time.Now(),
	})
}

func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, utils.NewNotFoundError(utils.ReasonNotFound, "order not found")
		}
		return nil, utils.NewInternalError(err)
	}
	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return orders, nil
}

// UpdateStatus moves an order along the lifecycle. Terminal orders and
// transitions outside the lifecycle are rejected as conflicts.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, next models.OrderStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, utils.NewValidationError(utils.ReasonInvalidInput, fmt.Sprintf("unknown order status %q", next))
	}
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, utils.NewConflictError(utils.ReasonInvalidTransition, fmt.Sprintf("order is already %s", order.Status))
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, utils.NewConflictError(utils.ReasonInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}

	if err := s.orders.UpdateStatus(ctx, id, order.Status, next); err != nil {
		if errors.Is(err, database.ErrStaleStatus) {
			return nil, utils.NewConflictError(utils.ReasonInvalidTransition, "order status changed, reload and retry")
		}
		return nil, utils.NewInternalError(err)
	}
	previous := order.Status
	order.Status = next
	order.UpdatedAt = time.Now()

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     previous,
		"to":       next,
	}).Info("order status changed")
	s.events.Publish(ctx, models.OrderEvent{
		Event:     models.EventOrderStatus,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    string(next),
		Total:     order.Total,
		Order:     order,
		Timestamp: time.Now(),
	})
	return order, nil
}
