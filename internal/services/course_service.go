package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Gopher0727/StudyRoom/internal/models"
	"github.com/Gopher0727/StudyRoom/internal/repositories"
)

var (
	ErrCourseCodeRequired = errors.New("课程代码不能为空")
	ErrCourseTitleMissing = errors.New("课程名称不能为空")
	ErrCourseCodeTaken    = errors.New("课程代码已存在")
)

// CourseService 课程目录服务
type CourseService struct {
	courseRepo *repositories.CourseRepository
}

// NewCourseService 创建课程目录服务实例
func NewCourseService(courseRepo *repositories.CourseRepository) *CourseService {
	return &CourseService{courseRepo: courseRepo}
}

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	Code       string `json:"code" binding:"required"`
	Title      string `json:"title" binding:"required"`
	Department string `json:"department"`
}

// CourseDTO 课程数据传输对象
type CourseDTO struct {
	ID         uint   `json:"id"`
	Code       string `json:"code"`
	Title      string `json:"title"`
	Department string `json:"department"`
}

func toCourseDTO(course *models.Course) CourseDTO {
	return CourseDTO{
		ID:         course.ID,
		Code:       course.Code,
		Title:      course.Title,
		Department: course.Department,
	}
}

// CreateCourse 创建课程
func (s *CourseService) CreateCourse(req *CreateCourseRequest) (*CourseDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, ErrCourseCodeRequired
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrCourseTitleMissing
	}
	if _, err := s.courseRepo.GetByCode(code); err == nil {
		return nil, ErrCourseCodeTaken
	}

	course := &models.Course{
		Code:       code,
		Title:      strings.TrimSpace(req.Title),
		Department: req.Department,
	}
	if err := s.courseRepo.Create(course); err != nil {
		return nil, err
	}
	dto := toCourseDTO(course)
	return &dto, nil
}

// GetCourse 获取课程
func (s *CourseService) GetCourse(id uint) (*CourseDTO, error) {
	course, err := s.courseRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	dto := toCourseDTO(course)
	return &dto, nil
}

// ListCourses 课程列表
func (s *CourseService) ListCourses(department string) ([]CourseDTO, error) {
	courses, err := s.courseRepo.List(department)
	if err != nil {
		return nil, err
	}
	dtos := make([]CourseDTO, 0, len(courses))
	for i := range courses {
		dtos = append(dtos, toCourseDTO(&courses[i]))
	}
	return dtos, nil
}
