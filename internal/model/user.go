package model

import (
	"time"
)

// swagger:model User
type User struct {
	BaseModel
	Name        string     `gorm:"size:100;not null" json:"name"`
	Email       string     `gorm:"size:100;unique;not null" json:"email"`
	Password    string     `gorm:"size:100;not null" json:"-"`
	IsAcademic  bool       `gorm:"default:false" json:"isAcademic"`
	Institution string     `gorm:"size:255" json:"institution,omitempty"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}
