package models

import (
	"time"

	"gorm.io/gorm"
)

// Course 课程模型
type Course struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Code       string `gorm:"uniqueIndex;not null" json:"code"` // 例如 CS101
	Title      string `gorm:"not null" json:"title"`
	Department string `json:"department"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Course) TableName() string {
	return "courses"
}
