package models

import (
	"time"

	"gorm.io/gorm"
)

// Message 小组聊天消息模型
// ID 由 snowflake 生成，SequenceID 为组内递增序号（Redis INCR）
type Message struct {
	ID         int64          `gorm:"primaryKey" json:"id"`
	GroupID    uint           `gorm:"not null;index" json:"group_id"`
	SenderID   uint           `gorm:"not null;index" json:"sender_id"`
	Content    string         `gorm:"not null" json:"content"`
	MsgType    string         `gorm:"default:text" json:"msg_type"` // text, system
	SequenceID int64          `gorm:"not null" json:"sequence_id"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Sender     *User          `gorm:"foreignKey:SenderID" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}
