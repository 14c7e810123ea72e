package models

import (
	"time"
)

// JoinRequest 入组申请模型
// 仅在待处理期间存在：批准/拒绝/撤回都会物理删除该行
// (group_id, user_id) 唯一索引保证同一用户对同一小组最多一条待处理申请
type JoinRequest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GroupID     uint      `gorm:"not null;uniqueIndex:idx_request_group_user" json:"group_id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_request_group_user" json:"user_id"`
	Message     string    `gorm:"size:500" json:"message"` // 申请附言，可选
	RequestedAt time.Time `gorm:"autoCreateTime" json:"requested_at"`

	Group *StudyGroup `gorm:"foreignKey:GroupID" json:"-"`
	User  *User       `gorm:"foreignKey:UserID" json:"-"`
}

func (JoinRequest) TableName() string {
	return "join_requests"
}
