package models

import (
	"time"

	"gorm.io/gorm"
)

// 举报状态
const (
	ReportOpen      = "open"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

// Report 内容举报模型，目标可以是资源或评论
type Report struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ReporterID uint   `gorm:"not null;index" json:"reporter_id"`
	TargetType string `gorm:"size:32;not null" json:"target_type"` // resource, comment
	TargetID   uint   `gorm:"not null;index" json:"target_id"`
	Reason     string `gorm:"not null;size:500" json:"reason"`
	Status     string `gorm:"default:open;index" json:"status"` // open, resolved, dismissed
	ResolvedBy uint   `json:"resolved_by"`
	Resolution string `gorm:"size:500" json:"resolution"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Reporter *User `gorm:"foreignKey:ReporterID" json:"-"`
}

func (Report) TableName() string {
	return "reports"
}
