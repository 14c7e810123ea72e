package models

import (
	"time"
)

// 成员角色
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// GroupMember 小组成员模型
// 管理员也是一条成员记录（Role = admin），"admin ∈ members" 的不变量由数据模型保证
type GroupMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_group_user" json:"group_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_group_user" json:"user_id"`
	Role     string    `gorm:"default:member" json:"role"` // admin, member
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	Group *StudyGroup `gorm:"foreignKey:GroupID" json:"-"`
	User  *User       `gorm:"foreignKey:UserID" json:"-"`
}

func (GroupMember) TableName() string {
	return "group_members"
}
