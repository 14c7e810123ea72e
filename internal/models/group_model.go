package models

import (
	"time"

	"gorm.io/gorm"
)

// StudyGroup 学习小组模型
// OwnerID 为组管理员，创建后不可变更（无所有权转移功能）
type StudyGroup struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name      string `gorm:"not null" json:"name"`
	CourseID  uint   `gorm:"not null;index" json:"course_id"`
	OwnerID   uint   `gorm:"not null" json:"owner_id"`
	IsPrivate bool   `gorm:"default:false" json:"is_private"`

	Course       *Course       `gorm:"foreignKey:CourseID" json:"-"`
	Owner        *User         `gorm:"foreignKey:OwnerID" json:"-"`
	Members      []GroupMember `gorm:"foreignKey:GroupID" json:"-"`
	JoinRequests []JoinRequest `gorm:"foreignKey:GroupID" json:"-"`
	Messages     []Message     `gorm:"foreignKey:GroupID" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (StudyGroup) TableName() string {
	return "study_groups"
}
