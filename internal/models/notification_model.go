package models

import (
	"time"
)

// 通知类型
const (
	NotifyRequestApproved = "request_approved"
	NotifyRequestRejected = "request_rejected"
	NotifyMemberRemoved   = "member_removed"
	NotifyGroupDeleted    = "group_deleted"
	NotifyReportResolved  = "report_resolved"
)

// Notification 通知模型
type Notification struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID  uint   `gorm:"not null;index" json:"user_id"`
	Type    string `gorm:"size:32;index" json:"type"`
	Title   string `gorm:"size:100" json:"title"`
	Body    string `gorm:"size:500" json:"body"`
	RefType string `gorm:"size:32" json:"ref_type"` // group, resource, report
	RefID   uint   `json:"ref_id"`
	IsRead  bool   `gorm:"default:false;index" json:"is_read"`

	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}
