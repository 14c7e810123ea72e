package models

import (
	"time"

	"gorm.io/gorm"
)

// PlannerEvent 个人日程模型
type PlannerEvent struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID   uint      `gorm:"not null;index" json:"user_id"`
	CourseID *uint     `gorm:"index" json:"course_id"` // 可选的课程关联
	Title    string    `gorm:"not null" json:"title"`
	Notes    string    `json:"notes"`
	StartAt  time.Time `gorm:"not null;index" json:"start_at"`
	EndAt    time.Time `gorm:"not null" json:"end_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User   *User   `gorm:"foreignKey:UserID" json:"-"`
	Course *Course `gorm:"foreignKey:CourseID" json:"-"`
}

func (PlannerEvent) TableName() string {
	return "planner_events"
}
