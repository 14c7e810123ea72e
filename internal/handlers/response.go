package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StudyRoom/internal/services"
)

// currentUserID 从上下文取出认证中间件写入的用户 ID
func currentUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "unauthorized",
		})
		return 0, false
	}
	return userID.(uint), true
}

// statusForErr 将业务错误映射为 HTTP 状态码
// 校验失败 400，权限不足 403，资源不存在 404，状态冲突 409
func statusForErr(err error) int {
	switch {
	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrCourseRequired),
		errors.Is(err, services.ErrInvalidUserName),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, services.ErrCourseCodeRequired),
		errors.Is(err, services.ErrCourseTitleMissing),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrURLRequired),
		errors.Is(err, services.ErrInvalidVote),
		errors.Is(err, services.ErrEmptyComment),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrEventTitle),
		errors.Is(err, services.ErrEventTimeRange),
		errors.Is(err, services.ErrReasonRequired),
		errors.Is(err, services.ErrBadTargetType),
		errors.Is(err, services.ErrInvalidResolution),
		errors.Is(err, services.ErrWrongOldPassword):
		return http.StatusBadRequest

	case errors.Is(err, services.ErrWrongCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, services.ErrNotAdmin),
		errors.Is(err, services.ErrAdminLeave),
		errors.Is(err, services.ErrRemoveAdmin),
		errors.Is(err, services.ErrNotUploader),
		errors.Is(err, services.ErrNotModerator):
		return http.StatusForbidden

	case errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrCourseNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrResourceNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrReportNotFound),
		errors.Is(err, services.ErrBadTarget):
		return http.StatusNotFound

	case errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrAlreadyRequested),
		errors.Is(err, services.ErrNotMember),
		errors.Is(err, services.ErrRequestGone),
		errors.Is(err, services.ErrUserNameTaken),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrCourseCodeTaken),
		errors.Is(err, services.ErrParentMismatch),
		errors.Is(err, services.ErrReportClosed):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// fail 按错误类型返回对应的状态码和错误信息
func fail(c *gin.Context, err error) {
	c.JSON(statusForErr(err), gin.H{
		"error": err.Error(),
	})
}

// ok 统一的成功响应包装
func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

// created 资源创建成功，同一响应体但状态码为 201
func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}
