package models

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to café staff (staff or admin).
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"fullName"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Phone     string    `gorm:"type:varchar(32)" json:"phone"`
	Role      Role      `gorm:"type:varchar(16);not null;default:'customer'" json:"role"`
	Points    int       `gorm:"not null;default:0;check:chk_users_points,points >= 0" json:"points"`
	IsInStore bool      `gorm:"not null;default:false" json:"isInStore"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
