package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StudyRoom/internal/services"
)

// GroupHandler 学习小组处理器
type GroupHandler struct {
	membershipService *services.MembershipService
}

// NewGroupHandler 创建学习小组处理器实例
func NewGroupHandler(membershipService *services.MembershipService) *GroupHandler {
	return &GroupHandler{
		membershipService: membershipService,
	}
}

// groupIDParam 解析路径中的小组 ID
func groupIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid group id",
		})
		return 0, false
	}
	return uint(id), true
}

// CreateGroup 创建学习小组，创建者自动成为管理员
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	var req services.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("CreateGroup: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	group, err := h.membershipService.CreateGroup(userID, &req)
	if err != nil {
		log.Printf("CreateGroup: service error for userID %v: %v", userID, err)
		fail(c, err)
		return
	}

	created(c, group)
}

// GetGroup 获取小组详情
func (h *GroupHandler) GetGroup(c *gin.Context) {
	groupID, okParam := groupIDParam(c)
	if !okParam {
		return
	}

	group, err := h.membershipService.GetGroupDetail(groupID)
	if err != nil {
		log.Printf("GetGroup: error for group %d: %v", groupID, err)
		fail(c, err)
		return
	}

	ok(c, group)
}

// UpdateGroup 更新小组设置（名称、公开性），仅管理员
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	groupID, okParam := groupIDParam(c)
	if !okParam {
		return
	}

	var req services.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("UpdateGroup: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	group, err := h.membershipService.UpdateGroupSettings(userID, groupID, &req)
	if err != nil {
		log.Printf("UpdateGroup: service error for group %d: %v", groupID, err)
		fail(c, err)
		return
	}

	ok(c, group)
}

// DeleteGroup 删除小组，仅管理员
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	groupID, okParam := groupIDParam(c)
	if !okParam {
		return
	}

	if err := h.membershipService.DeleteGroup(userID, groupID); err != nil {
		log.Printf("DeleteGroup: service error for group %d: %v", groupID, err)
		fail(c, err)
		return
	}

	ok(c, nil)
}

// Join 加入小组：公开小组直接成为成员，私有小组创建入组申请
func (h *GroupHandler) Join(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	groupID, okParam := groupIDParam(c)
	if !okParam {
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	// body 可选，仅私有小组的申请附言
	_ = c.ShouldBindJSON(&req)

	status, err := h.membershipService.RequestOrJoin(userID, groupID, req.Message)
	if err != nil {
		log.Printf("Join: service error for user %d group %d: %v", userID, groupID, err)
		fail(c, err)
		return
	}

	ok(c, gin.H{"status": status})
}

// CancelRequest 撤回自己的入组申请
func (h *GroupHandler) CancelRequest(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	groupID, okParam := groupIDParam(c)
	if !okParam {
		return
	}

	if err := h.membershipService.CancelRequest(userID, groupID); err != nil {
		log.Printf("CancelRequest: service error for user %d group %d: %v", userID, groupID, err)
		fail(c, err)
		return
	}

	ok(c, nil)
}

// ApproveRequest 批准入组申请，仅管理员
func (h *GroupHandler) ApproveRequest(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	groupID, okParam := groupIDParam(c)
	if !okParam {
		return
	}
	requestID, err := strconv.ParseUint(c.Param("requestID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request id",
		})
		return
	}

	if err := h.membershipService.ApproveRequest(userID, groupID, uint(requestID)); err != nil {
		log.Printf("ApproveRequest: service error for group %d request %d: %v", groupID, requestID, err)
		fail(c, err)
		return
	}

	ok(c, nil)
}

// RejectRequest 拒绝入组申请，仅管理员
func (h *GroupHandler) RejectRequest(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	groupID, okParam := groupIDParam(c)
	if !okParam {
		return
	}
	requestID, err := strconv.ParseUint(c.Param("requestID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request id",
		})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.membershipService.RejectRequest(userID, groupID, uint(requestID), req.Reason); err != nil {
		log.Printf("RejectRequest: service error for group %d request %d: %v", groupID, requestID, err)
		fail(c, err)
		return
	}

	ok(c, nil)
}

// Leave 退出小组
func (h *GroupHandler) Leave(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	groupID, okParam := groupIDParam(c)
	if !okParam {
		return
	}

	if err := h.membershipService.LeaveGroup(userID, groupID); err != nil {
		log.Printf("Leave: service error for user %d group %d: %v", userID, groupID, err)
		fail(c, err)
		return
	}

	ok(c, nil)
}

// RemoveMember 移除小组成员，仅管理员
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	groupID, okParam := groupIDParam(c)
	if !okParam {
		return
	}
	memberID, err := strconv.ParseUint(c.Param("userID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid user id",
		})
		return
	}

	if err := h.membershipService.RemoveMember(userID, groupID, uint(memberID)); err != nil {
		log.Printf("RemoveMember: service error for group %d member %d: %v", groupID, memberID, err)
		fail(c, err)
		return
	}

	ok(c, nil)
}

// GetUserStatus 查询当前用户在该小组的状态 (admin/member/pending/none)
func (h *GroupHandler) GetUserStatus(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	groupID, okParam := groupIDParam(c)
	if !okParam {
		return
	}

	status, err := h.membershipService.GetUserStatus(userID, groupID)
	if err != nil {
		log.Printf("GetUserStatus: service error for user %d group %d: %v", userID, groupID, err)
		fail(c, err)
		return
	}

	ok(c, gin.H{"status": status})
}

// ListMembers 小组成员列表
func (h *GroupHandler) ListMembers(c *gin.Context) {
	groupID, okParam := groupIDParam(c)
	if !okParam {
		return
	}

	members, err := h.membershipService.GetGroupMembers(groupID)
	if err != nil {
		log.Printf("ListMembers: service error for group %d: %v", groupID, err)
		fail(c, err)
		return
	}

	ok(c, members)
}

// ListJoinRequests 小组的待处理入组申请，仅管理员可见
func (h *GroupHandler) ListJoinRequests(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	groupID, okParam := groupIDParam(c)
	if !okParam {
		return
	}

	requests, err := h.membershipService.ListJoinRequests(userID, groupID)
	if err != nil {
		log.Printf("ListJoinRequests: service error for group %d: %v", groupID, err)
		fail(c, err)
		return
	}

	ok(c, requests)
}

// MyGroups 当前用户所属的小组列表
func (h *GroupHandler) MyGroups(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	groups, err := h.membershipService.ListGroupsForUser(userID)
	if err != nil {
		log.Printf("MyGroups: service error for user %d: %v", userID, err)
		fail(c, err)
		return
	}

	ok(c, groups)
}

// MyRequests 当前用户的待处理入组申请列表
func (h *GroupHandler) MyRequests(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	requests, err := h.membershipService.ListPendingRequestsForUser(userID)
	if err != nil {
		log.Printf("MyRequests: service error for user %d: %v", userID, err)
		fail(c, err)
		return
	}

	ok(c, requests)
}
