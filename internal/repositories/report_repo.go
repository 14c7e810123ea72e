package repositories

import (
	"gorm.io/gorm"

	"github.com/Gopher0727/StudyRoom/internal/models"
)

// ReportRepository 内容举报仓储
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建内容举报仓储实例
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create 创建举报
func (r *ReportRepository) Create(report *models.Report) error {
	return r.db.Create(report).Error
}

// GetByID 获取举报
func (r *ReportRepository) GetByID(id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.Preload("Reporter").First(&report, id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// ListByStatus 按状态分页列出举报（审核视角）
func (r *ReportRepository) ListByStatus(status string, limit, offset int) ([]models.Report, int64, error) {
	var reports []models.Report
	var total int64

	query := r.db.Model(&models.Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Reporter").Order("created_at").Limit(limit).Offset(offset).Find(&reports).Error
	return reports, total, err
}

// Resolve 条件更新举报状态：仅当仍为 open 时生效，返回受影响行数
func (r *ReportRepository) Resolve(reportID, resolverID uint, status, resolution string) (int64, error) {
	result := r.db.Model(&models.Report{}).
		Where("id = ? AND status = ?", reportID, models.ReportOpen).
		Updates(map[string]any{
			"status":      status,
			"resolved_by": resolverID,
			"resolution":  resolution,
		})
	return result.RowsAffected, result.Error
}
