package models

import "time"

type Reward struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	NameEn         string    `gorm:"type:varchar(255)" json:"nameEn"`
	Description    string    `gorm:"type:text" json:"description"`
	DescriptionEn  string    `gorm:"type:text" json:"descriptionEn"`
	PointsRequired int       `gorm:"not null" json:"pointsRequired"`
	Image          string    `gorm:"type:varchar(255)" json:"image"`
	Available      bool      `gorm:"not null" json:"available"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
