package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Gopher0727/StudyRoom/internal/models"
	"github.com/Gopher0727/StudyRoom/internal/repositories"
)

var (
	ErrEventNotFound  = errors.New("日程不存在")
	ErrEventTitle     = errors.New("日程标题不能为空")
	ErrEventTimeRange = errors.New("日程结束时间必须晚于开始时间")
)

// PlannerService 个人日程服务
type PlannerService struct {
	plannerRepo *repositories.PlannerRepository
	courseRepo  *repositories.CourseRepository
}

// NewPlannerService 创建个人日程服务实例
func NewPlannerService(plannerRepo *repositories.PlannerRepository, courseRepo *repositories.CourseRepository) *PlannerService {
	return &PlannerService{
		plannerRepo: plannerRepo,
		courseRepo:  courseRepo,
	}
}

// CreateEventRequest 创建日程请求
type CreateEventRequest struct {
	Title    string    `json:"title" binding:"required"`
	Notes    string    `json:"notes"`
	CourseID *uint     `json:"course_id"`
	StartAt  time.Time `json:"start_at" binding:"required"`
	EndAt    time.Time `json:"end_at" binding:"required"`
}

// UpdateEventRequest 更新日程请求，nil 字段不变更
type UpdateEventRequest struct {
	Title   *string    `json:"title"`
	Notes   *string    `json:"notes"`
	StartAt *time.Time `json:"start_at"`
	EndAt   *time.Time `json:"end_at"`
}

// EventDTO 日程数据传输对象
type EventDTO struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	Notes      string `json:"notes"`
	CourseID   *uint  `json:"course_id"`
	CourseCode string `json:"course_code,omitempty"`
	StartAt    string `json:"start_at"`
	EndAt      string `json:"end_at"`
}

func toEventDTO(e *models.PlannerEvent) EventDTO {
	dto := EventDTO{
		ID:       e.ID,
		Title:    e.Title,
		Notes:    e.Notes,
		CourseID: e.CourseID,
		StartAt:  e.StartAt.Format(time.RFC3339),
		EndAt:    e.EndAt.Format(time.RFC3339),
	}
	if e.Course != nil {
		dto.CourseCode = e.Course.Code
	}
	return dto
}

// CreateEvent 创建日程
func (s *PlannerService) CreateEvent(userID uint, req *CreateEventRequest) (*EventDTO, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrEventTitle
	}
	if !req.EndAt.After(req.StartAt) {
		return nil, ErrEventTimeRange
	}
	if req.CourseID != nil {
		if _, err := s.courseRepo.GetByID(*req.CourseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCourseNotFound
			}
			return nil, err
		}
	}

	event := &models.PlannerEvent{
		UserID:   userID,
		CourseID: req.CourseID,
		Title:    strings.TrimSpace(req.Title),
		Notes:    req.Notes,
		StartAt:  req.StartAt,
		EndAt:    req.EndAt,
	}
	if err := s.plannerRepo.Create(event); err != nil {
		return nil, err
	}
	dto := toEventDTO(event)
	return &dto, nil
}

// ListEvents 按时间区间列出日程
func (s *PlannerService) ListEvents(userID uint, from, to time.Time) ([]EventDTO, error) {
	if to.IsZero() {
		to = from.AddDate(0, 1, 0)
	}
	events, err := s.plannerRepo.ListByRange(userID, from, to)
	if err != nil {
		return nil, err
	}

	dtos := make([]EventDTO, 0, len(events))
	for i := range events {
		dtos = append(dtos, toEventDTO(&events[i]))
	}
	return dtos, nil
}

// UpdateEvent 部分更新日程
func (s *PlannerService) UpdateEvent(userID, eventID uint, req *UpdateEventRequest) (*EventDTO, error) {
	event, err := s.plannerRepo.GetByID(userID, eventID)
	if err != nil {
		return nil, ErrEventNotFound
	}

	fields := map[string]any{}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, ErrEventTitle
		}
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}

	startAt, endAt := event.StartAt, event.EndAt
	if req.StartAt != nil {
		startAt = *req.StartAt
		fields["start_at"] = startAt
	}
	if req.EndAt != nil {
		endAt = *req.EndAt
		fields["end_at"] = endAt
	}
	if !endAt.After(startAt) {
		return nil, ErrEventTimeRange
	}

	if len(fields) > 0 {
		if _, err := s.plannerRepo.UpdateFields(userID, eventID, fields); err != nil {
			return nil, err
		}
	}

	updated, err := s.plannerRepo.GetByID(userID, eventID)
	if err != nil {
		return nil, ErrEventNotFound
	}
	dto := toEventDTO(updated)
	return &dto, nil
}

// DeleteEvent 删除日程
func (s *PlannerService) DeleteEvent(userID, eventID uint) error {
	affected, err := s.plannerRepo.Delete(userID, eventID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}
