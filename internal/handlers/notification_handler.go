package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StudyRoom/internal/services"
)

// NotificationHandler 通知处理器
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler 创建通知处理器实例
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// List 当前用户的通知列表，分页
func (h *NotificationHandler) List(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	notifications, total, err := h.notificationService.List(userID, page, pageSize)
	if err != nil {
		log.Printf("List: service error for user %d: %v", userID, err)
		fail(c, err)
		return
	}

	ok(c, gin.H{
		"items": notifications,
		"total": total,
	})
}

// MarkRead 标记单条通知为已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid notification id",
		})
		return
	}

	if err := h.notificationService.MarkRead(userID, uint(id)); err != nil {
		log.Printf("MarkRead: service error for notification %d: %v", id, err)
		fail(c, err)
		return
	}

	ok(c, nil)
}

// MarkAllRead 标记全部通知为已读
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	if err := h.notificationService.MarkAllRead(userID); err != nil {
		log.Printf("MarkAllRead: service error for user %d: %v", userID, err)
		fail(c, err)
		return
	}

	ok(c, nil)
}

// UnreadCount 未读通知数量
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	count, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		log.Printf("UnreadCount: service error for user %d: %v", userID, err)
		fail(c, err)
		return
	}

	ok(c, gin.H{"count": count})
}
