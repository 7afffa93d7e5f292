package entities

import (
	"time"

	"audio-archive/constant"
)

// User is the account owning recordings. Account CRUD lives upstream; this
// service only reads users and reacts to their deletion.
type User struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	Name      string        `json:"name" gorm:"type:varchar(255);not null"`
	Email     string        `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Role      constant.Role `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	CreatedAt time.Time     `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string {
	return "users"
}
