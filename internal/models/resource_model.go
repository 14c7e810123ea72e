package models

import (
	"time"

	"gorm.io/gorm"
)

// Resource 课程资源模型
// 只存元数据与外部存储 URL，文件内容不经过本服务
type Resource struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	Kind        string `gorm:"default:file" json:"kind"` // file, link, note
	FileURL     string `gorm:"not null" json:"file_url"`
	FileKey     string `gorm:"uniqueIndex" json:"file_key"` // 外部存储对象键
	CourseID    uint   `gorm:"not null;index" json:"course_id"`
	UploaderID  uint   `gorm:"not null;index" json:"uploader_id"`
	Score       int    `gorm:"default:0" json:"score"` // 投票累计分，冗余计数

	Course   *Course        `gorm:"foreignKey:CourseID" json:"-"`
	Uploader *User          `gorm:"foreignKey:UploaderID" json:"-"`
	Votes    []ResourceVote `gorm:"foreignKey:ResourceID" json:"-"`
	Comments []Comment      `gorm:"foreignKey:ResourceID" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Resource) TableName() string {
	return "resources"
}

// ResourceVote 资源投票模型
// 一人一票，改票时更新 Value
type ResourceVote struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ResourceID uint `gorm:"not null;uniqueIndex:idx_vote_resource_user" json:"resource_id"`
	UserID     uint `gorm:"not null;uniqueIndex:idx_vote_resource_user" json:"user_id"`
	Value      int  `gorm:"not null" json:"value"` // +1 或 -1

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ResourceVote) TableName() string {
	return "resource_votes"
}

// Comment 资源评论模型，ParentID 支持楼中楼
type Comment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ResourceID uint   `gorm:"not null;index" json:"resource_id"`
	AuthorID   uint   `gorm:"not null" json:"author_id"`
	ParentID   *uint  `gorm:"index" json:"parent_id"`
	Content    string `gorm:"not null;size:2000" json:"content"`

	Author  *User     `gorm:"foreignKey:AuthorID" json:"-"`
	Replies []Comment `gorm:"foreignKey:ParentID" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Comment) TableName() string {
	return "comments"
}
