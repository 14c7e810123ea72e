package repositories

import (
	"gorm.io/gorm"

	"github.com/Gopher0727/StudyRoom/internal/models"
)

// CourseRepository 课程仓储
type CourseRepository struct {
	db *gorm.DB
}

// NewCourseRepository 创建课程仓储实例
func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create 创建课程
func (r *CourseRepository) Create(course *models.Course) error {
	return r.db.Create(course).Error
}

// GetByID 根据 ID 获取课程
func (r *CourseRepository) GetByID(id uint) (*models.Course, error) {
	var course models.Course
	if err := r.db.First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// GetByCode 根据课程代码获取课程
func (r *CourseRepository) GetByCode(code string) (*models.Course, error) {
	var course models.Course
	if err := r.db.Where("code = ?", code).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// List 课程列表，支持按院系过滤
func (r *CourseRepository) List(department string) ([]models.Course, error) {
	var courses []models.Course
	query := r.db.Order("code")
	if department != "" {
		query = query.Where("department = ?", department)
	}
	err := query.Find(&courses).Error
	return courses, err
}
