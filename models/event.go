package models

import "time"

const (
	EventOrderCreated   = "order_created"
	EventOrderStatus    = "order_status"
	EventPointsCredited = "points_credited"
)

// OrderEvent is what the live board and the message queue receive when an
// order is created, changes status or has its points credited.
type OrderEvent struct {
	Event     string    `json:"event"`
	OrderID   uint      `json:"orderId"`
	UserID    uint      `json:"userId"`
	Status    string    `json:"status,omitempty"`
	Total     int64     `json:"total,omitempty"`
	Points    int       `json:"points,omitempty"`
	Balance   *int      `json:"balance,omitempty"`
	Order     *Order    `json:"order,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
