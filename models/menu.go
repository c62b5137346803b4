package models

import "time"

type MenuItem struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	NameEn        string    `gorm:"type:varchar(255)" json:"nameEn"`
	Description   string    `gorm:"type:text" json:"description"`
	DescriptionEn string    `gorm:"type:text" json:"descriptionEn"`
	Price         int64     `gorm:"not null" json:"price"`
	Category      string    `gorm:"type:varchar(64);index" json:"category"`
	Image         string    `gorm:"type:varchar(255)" json:"image"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"reviewCount"`
	Views         int       `json:"views"`
	Clicks        int       `json:"clicks"`
	Orders        int       `gorm:"not null;default:0;index" json:"orders"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
