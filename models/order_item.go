package models

type OrderItem struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	OrderID    uint   `gorm:"index;not null" json:"-"`
	MenuItemID uint   `gorm:"not null" json:"menuItemId"`
	Quantity   int    `gorm:"not null" json:"quantity"`
	Price      int64  `gorm:"not null" json:"price"`
	Notes      string `gorm:"type:text" json:"notes,omitempty"`
}
