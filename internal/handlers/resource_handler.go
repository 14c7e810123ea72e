package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StudyRoom/internal/services"
)

// ResourceHandler 课程资源处理器
type ResourceHandler struct {
	resourceService *services.ResourceService
}

// NewResourceHandler 创建课程资源处理器实例
func NewResourceHandler(resourceService *services.ResourceService) *ResourceHandler {
	return &ResourceHandler{
		resourceService: resourceService,
	}
}

func resourceIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid resource id",
		})
		return 0, false
	}
	return uint(id), true
}

// CreateResource 上传课程资源
func (h *ResourceHandler) CreateResource(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	var req services.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("CreateResource: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	resource, err := h.resourceService.CreateResource(userID, &req)
	if err != nil {
		log.Printf("CreateResource: service error for user %d: %v", userID, err)
		fail(c, err)
		return
	}

	ok(c, resource)
}

// GetResource 资源详情
func (h *ResourceHandler) GetResource(c *gin.Context) {
	resourceID, okParam := resourceIDParam(c)
	if !okParam {
		return
	}

	resource, err := h.resourceService.GetResource(resourceID)
	if err != nil {
		log.Printf("GetResource: error for resource %d: %v", resourceID, err)
		fail(c, err)
		return
	}

	ok(c, resource)
}

// ListByCourse 按课程列出资源，按评分倒序分页
func (h *ResourceHandler) ListByCourse(c *gin.Context) {
	courseID, err := strconv.ParseUint(c.Query("course_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid course id",
		})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	resources, total, err := h.resourceService.ListByCourse(uint(courseID), page, pageSize)
	if err != nil {
		log.Printf("ListByCourse: service error for course %d: %v", courseID, err)
		fail(c, err)
		return
	}

	ok(c, gin.H{
		"items": resources,
		"total": total,
	})
}

// DeleteResource 删除资源，仅上传者
func (h *ResourceHandler) DeleteResource(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	resourceID, okParam := resourceIDParam(c)
	if !okParam {
		return
	}

	if err := h.resourceService.DeleteResource(userID, resourceID); err != nil {
		log.Printf("DeleteResource: service error for resource %d: %v", resourceID, err)
		fail(c, err)
		return
	}

	ok(c, nil)
}

// Vote 为资源投票 (+1 / -1)，重复投票覆盖旧值
func (h *ResourceHandler) Vote(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	resourceID, okParam := resourceIDParam(c)
	if !okParam {
		return
	}

	var req struct {
		Value int `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Vote: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	if err := h.resourceService.Vote(userID, resourceID, req.Value); err != nil {
		log.Printf("Vote: service error for resource %d: %v", resourceID, err)
		fail(c, err)
		return
	}

	ok(c, nil)
}

// AddComment 为资源添加评论，支持回复 (parent_id)
func (h *ResourceHandler) AddComment(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	resourceID, okParam := resourceIDParam(c)
	if !okParam {
		return
	}

	var req struct {
		Content  string `json:"content" binding:"required"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("AddComment: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	comment, err := h.resourceService.AddComment(userID, resourceID, req.ParentID, req.Content)
	if err != nil {
		log.Printf("AddComment: service error for resource %d: %v", resourceID, err)
		fail(c, err)
		return
	}

	ok(c, comment)
}

// ListComments 资源的评论列表
func (h *ResourceHandler) ListComments(c *gin.Context) {
	resourceID, okParam := resourceIDParam(c)
	if !okParam {
		return
	}

	comments, err := h.resourceService.ListComments(resourceID)
	if err != nil {
		log.Printf("ListComments: service error for resource %d: %v", resourceID, err)
		fail(c, err)
		return
	}

	ok(c, comments)
}
