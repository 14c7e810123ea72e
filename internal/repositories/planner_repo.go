package repositories

import (
	"time"

	"gorm.io/gorm"

	"github.com/Gopher0727/StudyRoom/internal/models"
)

// PlannerRepository 个人日程仓储
type PlannerRepository struct {
	db *gorm.DB
}

// NewPlannerRepository 创建个人日程仓储实例
func NewPlannerRepository(db *gorm.DB) *PlannerRepository {
	return &PlannerRepository{db: db}
}

// Create 创建日程
func (r *PlannerRepository) Create(event *models.PlannerEvent) error {
	return r.db.Create(event).Error
}

// GetByID 获取日程，限定本人
func (r *PlannerRepository) GetByID(userID, eventID uint) (*models.PlannerEvent, error) {
	var event models.PlannerEvent
	if err := r.db.Where("id = ? AND user_id = ?", eventID, userID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// ListByRange 按时间区间列出用户日程
func (r *PlannerRepository) ListByRange(userID uint, from, to time.Time) ([]models.PlannerEvent, error) {
	var events []models.PlannerEvent
	err := r.db.Where("user_id = ? AND start_at >= ? AND start_at < ?", userID, from, to).
		Preload("Course").
		Order("start_at").
		Find(&events).Error
	return events, err
}

// UpdateFields 部分更新日程，限定本人，返回受影响行数
func (r *PlannerRepository) UpdateFields(userID, eventID uint, fields map[string]any) (int64, error) {
	result := r.db.Model(&models.PlannerEvent{}).
		Where("id = ? AND user_id = ?", eventID, userID).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// Delete 删除日程，限定本人，返回受影响行数
func (r *PlannerRepository) Delete(userID, eventID uint) (int64, error) {
	result := r.db.Where("id = ? AND user_id = ?", eventID, userID).Delete(&models.PlannerEvent{})
	return result.RowsAffected, result.Error
}
