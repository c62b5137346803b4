package models

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// PointsPerUnit is the amount of currency minor units that earns one
// loyalty point.
const PointsPerUnit = 1000

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderCompleted, OrderCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status change is accepted.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	UserID         uint        `gorm:"index;not null" json:"userId"`
	Items          []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Total          int64       `gorm:"not null;default:0" json:"total"`
	Status         OrderStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	TableNumber    *int        `json:"tableNumber,omitempty"`
	PointsEarned   int         `gorm:"not null;default:0" json:"pointsEarned"`
	PointsCredited bool        `gorm:"not null;default:false" json:"pointsCredited"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// ComputeTotal sums quantity x price over the line items. The items must be
// validated first so the sum fits in an int64.
func ComputeTotal(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += int64(item.Quantity) * item.Price
	}
	return total
}

// PointsFor returns floor(total / PointsPerUnit); negative totals earn nothing.
func PointsFor(total int64) int {
	if total <= 0 {
		return 0
	}
	return int(total / PointsPerUnit)
}
