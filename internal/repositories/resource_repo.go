package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Gopher0727/StudyRoom/internal/models"
)

// ResourceRepository 课程资源仓储
type ResourceRepository struct {
	db *gorm.DB
}

// NewResourceRepository 创建课程资源仓储实例
func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create 创建资源记录
func (r *ResourceRepository) Create(resource *models.Resource) error {
	return r.db.Create(resource).Error
}

// GetByID 根据 ID 获取资源
func (r *ResourceRepository) GetByID(id uint) (*models.Resource, error) {
	var resource models.Resource
	if err := r.db.Preload("Uploader").Preload("Course").First(&resource, id).Error; err != nil {
		return nil, err
	}
	return &resource, nil
}

// ListByCourse 按课程分页列出资源，按分数倒序
func (r *ResourceRepository) ListByCourse(courseID uint, limit, offset int) ([]models.Resource, int64, error) {
	var resources []models.Resource
	var total int64

	query := r.db.Model(&models.Resource{}).Where("course_id = ?", courseID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Uploader").
		Order("score DESC, created_at DESC").
		Limit(limit).Offset(offset).
		Find(&resources).Error
	return resources, total, err
}

// Delete 删除资源
func (r *ResourceRepository) Delete(id uint) error {
	return r.db.Delete(&models.Resource{}, id).Error
}

// Vote 记录或更新投票，并在同一事务内维护资源的冗余分数
// value 只能是 +1 / -1，由服务层保证
func (r *ResourceRepository) Vote(resourceID, userID uint, value int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var vote models.ResourceVote
		err := tx.Where("resource_id = ? AND user_id = ?", resourceID, userID).First(&vote).Error

		delta := value
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote = models.ResourceVote{ResourceID: resourceID, UserID: userID, Value: value}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if vote.Value == value {
				// 同向重复投票视为无操作
				return nil
			}
			delta = value - vote.Value
			if err := tx.Model(&vote).Update("value", value).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Resource{}).Where("id = ?", resourceID).
			Update("score", gorm.Expr("score + ?", delta)).Error
	})
}

// CreateComment 创建评论
func (r *ResourceRepository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// GetComment 根据 ID 获取评论
func (r *ResourceRepository) GetComment(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListComments 获取资源的全部评论（平铺，前端按 parent_id 组树）
func (r *ResourceRepository) ListComments(resourceID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Where("resource_id = ?", resourceID).
		Preload("Author").
		Order("created_at").
		Find(&comments).Error
	return comments, err
}
