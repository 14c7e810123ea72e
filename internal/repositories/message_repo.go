package repositories

import (
	"gorm.io/gorm"

	"github.com/Gopher0727/StudyRoom/internal/models"
)

// MessageRepository 聊天消息仓储
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建聊天消息仓储实例
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Save 保存消息
func (r *MessageRepository) Save(msg *models.Message) error {
	return r.db.Create(msg).Error
}

// ListByGroup 拉取小组历史消息，按组内序号倒序（最新的在前）
// afterSeq 为 0 时从头拉取
func (r *MessageRepository) ListByGroup(groupID uint, afterSeq int64, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("group_id = ? AND sequence_id > ?", groupID, afterSeq).
		Preload("Sender").
		Order("sequence_id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
