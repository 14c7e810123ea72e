package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Gopher0727/StudyRoom/internal/models"
	"github.com/Gopher0727/StudyRoom/internal/repositories"
)

var (
	ErrResourceNotFound = errors.New("资源不存在")
	ErrCommentNotFound  = errors.New("评论不存在")
	ErrInvalidVote      = errors.New("投票只能是 +1 或 -1")
	ErrNotUploader      = errors.New("只有上传者可以删除资源")
	ErrTitleRequired    = errors.New("资源标题不能为空")
	ErrURLRequired      = errors.New("资源地址不能为空")
	ErrEmptyComment     = errors.New("评论内容不能为空")
	ErrParentMismatch   = errors.New("父评论不属于该资源")
)

// ResourceService 课程资源服务
// 文件本体存在外部对象存储，这里只管理元数据、投票与评论
type ResourceService struct {
	resourceRepo *repositories.ResourceRepository
	courseRepo   *repositories.CourseRepository
}

// NewResourceService 创建课程资源服务实例
func NewResourceService(resourceRepo *repositories.ResourceRepository, courseRepo *repositories.CourseRepository) *ResourceService {
	return &ResourceService{
		resourceRepo: resourceRepo,
		courseRepo:   courseRepo,
	}
}

// CreateResourceRequest 登记资源请求
type CreateResourceRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	FileURL     string `json:"file_url" binding:"required"`
	CourseID    uint   `json:"course_id" binding:"required"`
}

// ResourceDTO 资源数据传输对象
type ResourceDTO struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	FileURL     string `json:"file_url"`
	CourseID    uint   `json:"course_id"`
	UploaderID  uint   `json:"uploader_id"`
	Uploader    string `json:"uploader"`
	Score       int    `json:"score"`
	CreatedAt   string `json:"created_at"`
}

// CommentDTO 评论数据传输对象
type CommentDTO struct {
	ID        uint   `json:"id"`
	AuthorID  uint   `json:"author_id"`
	Author    string `json:"author"`
	ParentID  *uint  `json:"parent_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func toResourceDTO(r *models.Resource) ResourceDTO {
	dto := ResourceDTO{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Kind:        r.Kind,
		FileURL:     r.FileURL,
		CourseID:    r.CourseID,
		UploaderID:  r.UploaderID,
		Score:       r.Score,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.Uploader != nil {
		dto.Uploader = r.Uploader.UserName
	}
	return dto
}

// CreateResource 登记一条资源元数据
func (s *ResourceService) CreateResource(uploaderID uint, req *CreateResourceRequest) (*ResourceDTO, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(req.FileURL) == "" {
		return nil, ErrURLRequired
	}
	if _, err := s.courseRepo.GetByID(req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	kind := req.Kind
	if kind == "" {
		kind = "file"
	}

	resource := &models.Resource{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Kind:        kind,
		FileURL:     req.FileURL,
		FileKey:     uuid.New().String(),
		CourseID:    req.CourseID,
		UploaderID:  uploaderID,
	}
	if err := s.resourceRepo.Create(resource); err != nil {
		return nil, err
	}
	dto := toResourceDTO(resource)
	return &dto, nil
}

// GetResource 获取资源详情
func (s *ResourceService) GetResource(id uint) (*ResourceDTO, error) {
	resource, err := s.resourceRepo.GetByID(id)
	if err != nil {
		return nil, ErrResourceNotFound
	}
	dto := toResourceDTO(resource)
	return &dto, nil
}

// ListByCourse 按课程分页列出资源
func (s *ResourceService) ListByCourse(courseID uint, page, pageSize int) ([]ResourceDTO, int64, error) {
	offset := (page - 1) * pageSize
	resources, total, err := s.resourceRepo.ListByCourse(courseID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]ResourceDTO, 0, len(resources))
	for i := range resources {
		dtos = append(dtos, toResourceDTO(&resources[i]))
	}
	return dtos, total, nil
}

// DeleteResource 上传者删除自己的资源
func (s *ResourceService) DeleteResource(actorID, resourceID uint) error {
	resource, err := s.resourceRepo.GetByID(resourceID)
	if err != nil {
		return ErrResourceNotFound
	}
	if resource.UploaderID != actorID {
		return ErrNotUploader
	}
	return s.resourceRepo.Delete(resourceID)
}

// Vote 对资源投票，value 为 +1 或 -1，重复同向投票无操作
func (s *ResourceService) Vote(userID, resourceID uint, value int) error {
	if value != 1 && value != -1 {
		return ErrInvalidVote
	}
	if _, err := s.resourceRepo.GetByID(resourceID); err != nil {
		return ErrResourceNotFound
	}
	return s.resourceRepo.Vote(resourceID, userID, value)
}

// AddComment 发表评论，parentID 非空时为楼中楼回复
func (s *ResourceService) AddComment(authorID, resourceID uint, parentID *uint, content string) (*CommentDTO, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyComment
	}
	if _, err := s.resourceRepo.GetByID(resourceID); err != nil {
		return nil, ErrResourceNotFound
	}
	if parentID != nil {
		parent, err := s.resourceRepo.GetComment(*parentID)
		if err != nil {
			return nil, ErrCommentNotFound
		}
		if parent.ResourceID != resourceID {
			return nil, ErrParentMismatch
		}
	}

	comment := &models.Comment{
		ResourceID: resourceID,
		AuthorID:   authorID,
		ParentID:   parentID,
		Content:    content,
	}
	if err := s.resourceRepo.CreateComment(comment); err != nil {
		return nil, err
	}

	return &CommentDTO{
		ID:        comment.ID,
		AuthorID:  comment.AuthorID,
		ParentID:  comment.ParentID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt.Format(time.RFC3339),
	}, nil
}

// ListComments 获取资源评论（平铺）
func (s *ResourceService) ListComments(resourceID uint) ([]CommentDTO, error) {
	if _, err := s.resourceRepo.GetByID(resourceID); err != nil {
		return nil, ErrResourceNotFound
	}
	comments, err := s.resourceRepo.ListComments(resourceID)
	if err != nil {
		return nil, err
	}

	dtos := make([]CommentDTO, 0, len(comments))
	for _, c := range comments {
		dto := CommentDTO{
			ID:        c.ID,
			AuthorID:  c.AuthorID,
			ParentID:  c.ParentID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
		}
		if c.Author != nil {
			dto.Author = c.Author.UserName
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}
