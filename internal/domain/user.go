package domain

import "time"

type UserType string

const (
	UserTypeClient UserType = "CLIENT"
	UserTypeStaff  UserType = "STAFF"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserCode     string    `gorm:"size:64;uniqueIndex;not null" json:"userCode"`
	Name         string    `gorm:"size:128" json:"name"`
	Surname      string    `gorm:"size:128" json:"surname"`
	Email        string    `gorm:"size:256;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	UserType     UserType  `gorm:"size:16;not null" json:"userType"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
