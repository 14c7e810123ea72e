package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gopher0727/StudyRoom/internal/models"
	"github.com/Gopher0727/StudyRoom/internal/repositories"
)

var (
	ErrReportNotFound      = errors.New("举报不存在")
	ErrReportClosed        = errors.New("举报已被处理")
	ErrReasonRequired      = errors.New("举报理由不能为空")
	ErrBadTarget           = errors.New("举报对象不存在")
	ErrBadTargetType       = errors.New("举报对象类型不合法")
	ErrNotModerator        = errors.New("只有审核员可以执行该操作")
	ErrInvalidResolution   = errors.New("处理结果只能是 resolved 或 dismissed")
)

// ReportService 内容举报与审核服务
type ReportService struct {
	reportRepo   *repositories.ReportRepository
	resourceRepo *repositories.ResourceRepository
	userRepo     *repositories.UserRepository
	notifier     Notifier
}

// NewReportService 创建举报服务实例
func NewReportService(reportRepo *repositories.ReportRepository, resourceRepo *repositories.ResourceRepository, userRepo *repositories.UserRepository, notifier Notifier) *ReportService {
	return &ReportService{
		reportRepo:   reportRepo,
		resourceRepo: resourceRepo,
		userRepo:     userRepo,
		notifier:     notifier,
	}
}

// CreateReportRequest 创建举报请求
type CreateReportRequest struct {
	TargetType string `json:"target_type" binding:"required"` // resource, comment
	TargetID   uint   `json:"target_id" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// ReportDTO 举报数据传输对象
type ReportDTO struct {
	ID         uint   `json:"id"`
	ReporterID uint   `json:"reporter_id"`
	Reporter   string `json:"reporter"`
	TargetType string `json:"target_type"`
	TargetID   uint   `json:"target_id"`
	Reason     string `json:"reason"`
	Status     string `json:"status"`
	Resolution string `json:"resolution,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func toReportDTO(r *models.Report) ReportDTO {
	dto := ReportDTO{
		ID:         r.ID,
		ReporterID: r.ReporterID,
		TargetType: r.TargetType,
		TargetID:   r.TargetID,
		Reason:     r.Reason,
		Status:     r.Status,
		Resolution: r.Resolution,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
	if r.Reporter != nil {
		dto.Reporter = r.Reporter.UserName
	}
	return dto
}

// CreateReport 用户举报资源或评论
func (s *ReportService) CreateReport(reporterID uint, req *CreateReportRequest) (*ReportDTO, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, ErrReasonRequired
	}

	switch req.TargetType {
	case "resource":
		if _, err := s.resourceRepo.GetByID(req.TargetID); err != nil {
			return nil, ErrBadTarget
		}
	case "comment":
		if _, err := s.resourceRepo.GetComment(req.TargetID); err != nil {
			return nil, ErrBadTarget
		}
	default:
		return nil, ErrBadTargetType
	}

	report := &models.Report{
		ReporterID: reporterID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Reason:     req.Reason,
		Status:     models.ReportOpen,
	}
	if err := s.reportRepo.Create(report); err != nil {
		return nil, err
	}
	dto := toReportDTO(report)
	return &dto, nil
}

// ListReports 审核员按状态分页查看举报
func (s *ReportService) ListReports(actorID uint, status string, page, pageSize int) ([]ReportDTO, int64, error) {
	if err := s.requireModerator(actorID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	reports, total, err := s.reportRepo.ListByStatus(status, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]ReportDTO, 0, len(reports))
	for i := range reports {
		dtos = append(dtos, toReportDTO(&reports[i]))
	}
	return dtos, total, nil
}

// ResolveReport 审核员处理举报，条件更新防止并发重复处理，完成后通知举报人
func (s *ReportService) ResolveReport(actorID, reportID uint, status, resolution string) error {
	if err := s.requireModerator(actorID); err != nil {
		return err
	}
	if status != models.ReportResolved && status != models.ReportDismissed {
		return ErrInvalidResolution
	}

	report, err := s.reportRepo.GetByID(reportID)
	if err != nil {
		return ErrReportNotFound
	}

	affected, err := s.reportRepo.Resolve(reportID, actorID, status, resolution)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrReportClosed
	}

	if s.notifier != nil {
		body := fmt.Sprintf("你对%s #%d 的举报已处理", targetLabel(report.TargetType), report.TargetID)
		if resolution != "" {
			body = fmt.Sprintf("%s：%s", body, resolution)
		}
		s.notifier.Notify(report.ReporterID, models.NotifyReportResolved,
			"举报处理结果", body, "report", reportID)
	}
	return nil
}

func targetLabel(targetType string) string {
	if targetType == "comment" {
		return "评论"
	}
	return "资源"
}

func (s *ReportService) requireModerator(actorID uint) error {
	user, err := s.userRepo.GetByID(actorID)
	if err != nil {
		return ErrUserNotFound
	}
	if user.Role != "moderator" {
		return ErrNotModerator
	}
	return nil
}
