package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Gopher0727/StudyRoom/internal/models"
	"github.com/Gopher0727/StudyRoom/internal/repositories"
)

// 成员状态，一个 (用户, 小组) 对在任意时刻恰好处于其中一种
const (
	StatusAdmin   = "admin"
	StatusMember  = "member"
	StatusPending = "pending"
	StatusNone    = "none"
)

var (
	ErrGroupNotFound    = errors.New("小组不存在")
	ErrCourseNotFound   = errors.New("课程不存在")
	ErrNameRequired     = errors.New("小组名称不能为空")
	ErrCourseRequired   = errors.New("必须关联课程")
	ErrNotAdmin         = errors.New("只有小组管理员可以执行该操作")
	ErrAdminLeave       = errors.New("管理员不能退出小组，请删除小组或放弃该组")
	ErrAlreadyMember    = errors.New("已经是小组成员")
	ErrAlreadyRequested = errors.New("已有待处理的入组申请")
	ErrNotMember        = errors.New("不是小组成员")
	ErrRequestNotFound  = errors.New("入组申请不存在")
	ErrRequestGone      = errors.New("入组申请已被处理或撤回")
	ErrMemberNotFound   = errors.New("该成员不在小组中")
	ErrRemoveAdmin      = errors.New("不能移除小组管理员")
)

// Notifier 通知发送接口（fire-and-forget）
// 入组申请被批准/拒绝等事件通过它送达用户，失败不影响主流程
type Notifier interface {
	Notify(userID uint, notifyType, title, body, refType string, refID uint)
}

// MembershipService 学习小组成员关系服务
// 状态机：none -> pending -> member（私有组）、none -> member（公开组直接加入）、
// member/pending -> none（退出/拒绝/撤回）；admin 是创建者的固定角色，不可转移
type MembershipService struct {
	groupRepo  *repositories.GroupRepository
	courseRepo *repositories.CourseRepository
	notifier   Notifier
}

// NewMembershipService 创建成员关系服务实例
func NewMembershipService(groupRepo *repositories.GroupRepository, courseRepo *repositories.CourseRepository, notifier Notifier) *MembershipService {
	return &MembershipService{
		groupRepo:  groupRepo,
		courseRepo: courseRepo,
		notifier:   notifier,
	}
}

// CreateGroupRequest 创建小组请求
type CreateGroupRequest struct {
	Name      string `json:"name" binding:"required"`
	CourseID  uint   `json:"course_id" binding:"required"`
	IsPrivate bool   `json:"is_private"`
}

// UpdateGroupRequest 更新小组设置请求，nil 字段不变更
type UpdateGroupRequest struct {
	Name      *string `json:"name"`
	IsPrivate *bool   `json:"is_private"`
}

// GroupDTO 小组数据传输对象
type GroupDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	CourseID    uint   `json:"course_id"`
	CourseCode  string `json:"course_code"`
	CourseTitle string `json:"course_title"`
	OwnerID     uint   `json:"owner_id"`
	IsPrivate   bool   `json:"is_private"`
	MemberCount int    `json:"member_count"`
	CreatedAt   string `json:"created_at"`
}

// MemberDTO 小组成员数据传输对象
type MemberDTO struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
	JoinedAt string `json:"joined_at"`
}

// JoinRequestDTO 入组申请数据传输对象（管理员视角）
type JoinRequestDTO struct {
	ID          uint   `json:"id"`
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	Nickname    string `json:"nickname"`
	Message     string `json:"message"`
	RequestedAt string `json:"requested_at"`
}

// PendingRequestDTO 用户自己的待处理申请（申请人视角）
type PendingRequestDTO struct {
	ID          uint   `json:"id"`
	GroupID     uint   `json:"group_id"`
	GroupName   string `json:"group_name"`
	CourseCode  string `json:"course_code"`
	CourseTitle string `json:"course_title"`
	RequestedAt string `json:"requested_at"`
}

func (s *MembershipService) toGroupDTO(group *models.StudyGroup, memberCount int) *GroupDTO {
	dto := &GroupDTO{
		ID:          group.ID,
		Name:        group.Name,
		CourseID:    group.CourseID,
		OwnerID:     group.OwnerID,
		IsPrivate:   group.IsPrivate,
		MemberCount: memberCount,
		CreatedAt:   group.CreatedAt.Format(time.RFC3339),
	}
	if group.Course != nil {
		dto.CourseCode = group.Course.Code
		dto.CourseTitle = group.Course.Title
	}
	return dto
}

// CreateGroup 创建小组，创建者成为管理员并自动入组
func (s *MembershipService) CreateGroup(ownerID uint, req *CreateGroupRequest) (*GroupDTO, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if req.CourseID == 0 {
		return nil, ErrCourseRequired
	}
	course, err := s.courseRepo.GetByID(req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	group := &models.StudyGroup{
		Name:      strings.TrimSpace(req.Name),
		CourseID:  req.CourseID,
		OwnerID:   ownerID,
		IsPrivate: req.IsPrivate,
	}
	if err := s.groupRepo.Create(group); err != nil {
		return nil, err
	}
	group.Course = course

	return s.toGroupDTO(group, 1), nil
}

// GetGroupDetail 获取小组详情
func (s *MembershipService) GetGroupDetail(groupID uint) (*GroupDTO, error) {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, ErrGroupNotFound
	}
	members, err := s.groupRepo.ListMembers(groupID)
	if err != nil {
		return nil, err
	}
	return s.toGroupDTO(group, len(members)), nil
}

// UpdateGroupSettings 管理员部分更新小组设置
// 私有改公开不会自动处理存量申请，它们仍需管理员逐条批准或拒绝
func (s *MembershipService) UpdateGroupSettings(actorID, groupID uint, req *UpdateGroupRequest) (*GroupDTO, error) {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, ErrGroupNotFound
	}
	if group.OwnerID != actorID {
		return nil, ErrNotAdmin
	}

	fields := map[string]any{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrNameRequired
		}
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.IsPrivate != nil {
		fields["is_private"] = *req.IsPrivate
	}
	if len(fields) > 0 {
		if err := s.groupRepo.UpdateFields(groupID, fields); err != nil {
			return nil, err
		}
	}
	return s.GetGroupDetail(groupID)
}

// DeleteGroup 管理员删除小组，级联清理申请与成员，并通知被解散的成员
func (s *MembershipService) DeleteGroup(actorID, groupID uint) error {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if group.OwnerID != actorID {
		return ErrNotAdmin
	}

	members, err := s.groupRepo.ListMembers(groupID)
	if err != nil {
		return err
	}
	if err := s.groupRepo.Delete(groupID); err != nil {
		return err
	}

	if s.notifier != nil {
		for _, m := range members {
			if m.UserID == actorID {
				continue
			}
			s.notifier.Notify(m.UserID, models.NotifyGroupDeleted,
				"小组已解散",
				fmt.Sprintf("学习小组「%s」已被管理员解散", group.Name),
				"group", groupID)
		}
	}
	return nil
}

// RequestOrJoin 申请加入或直接加入
// 公开组：none -> member；私有组：none -> pending
// 返回加入后的状态（member 或 pending）
func (s *MembershipService) RequestOrJoin(userID, groupID uint, message string) (string, error) {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return "", ErrGroupNotFound
	}

	if _, err := s.groupRepo.GetMember(groupID, userID); err == nil {
		return "", ErrAlreadyMember
	}
	pending, err := s.groupRepo.HasPendingRequest(groupID, userID)
	if err != nil {
		return "", err
	}
	if pending {
		return "", ErrAlreadyRequested
	}

	if !group.IsPrivate {
		// 公开组直接入组，绝不落一条申请记录
		member := &models.GroupMember{GroupID: groupID, UserID: userID, Role: models.RoleMember}
		if err := s.groupRepo.AddMember(member); err != nil {
			// 并发双重加入时预检查会漏掉，唯一索引兜底
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return "", ErrAlreadyMember
			}
			return "", err
		}
		return StatusMember, nil
	}

	req := &models.JoinRequest{GroupID: groupID, UserID: userID, Message: message}
	if err := s.groupRepo.CreateJoinRequest(req); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrAlreadyRequested
		}
		return "", err
	}
	return StatusPending, nil
}

// ApproveRequest 管理员批准申请：pending -> member
// 申请在执行时已不存在（并发撤回/重复批准）返回 ErrRequestGone
func (s *MembershipService) ApproveRequest(actorID, groupID, requestID uint) error {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if group.OwnerID != actorID {
		return ErrNotAdmin
	}

	req, affected, err := s.groupRepo.ApproveJoinRequest(groupID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return err
	}
	if affected == 0 {
		return ErrRequestGone
	}

	if s.notifier != nil {
		s.notifier.Notify(req.UserID, models.NotifyRequestApproved,
			"入组申请已通过",
			fmt.Sprintf("你已加入学习小组「%s」", group.Name),
			"group", groupID)
	}
	return nil
}

// RejectRequest 管理员拒绝申请：pending -> none，用户之后可以重新申请
func (s *MembershipService) RejectRequest(actorID, groupID, requestID uint, reason string) error {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if group.OwnerID != actorID {
		return ErrNotAdmin
	}

	req, affected, err := s.groupRepo.RejectJoinRequest(groupID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return err
	}
	if affected == 0 {
		return ErrRequestGone
	}

	if s.notifier != nil {
		body := fmt.Sprintf("你加入「%s」的申请未通过", group.Name)
		if reason != "" {
			body = fmt.Sprintf("%s：%s", body, reason)
		}
		s.notifier.Notify(req.UserID, models.NotifyRequestRejected,
			"入组申请未通过", body, "group", groupID)
	}
	return nil
}

// CancelRequest 申请人撤回自己的申请：pending -> none
func (s *MembershipService) CancelRequest(userID, groupID uint) error {
	if _, err := s.groupRepo.GetByID(groupID); err != nil {
		return ErrGroupNotFound
	}
	affected, err := s.groupRepo.CancelJoinRequest(groupID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// LeaveGroup 成员退出小组：member -> none
// 管理员不能退出（无所有权转移功能），只能删除小组
func (s *MembershipService) LeaveGroup(userID, groupID uint) error {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if group.OwnerID == userID {
		return ErrAdminLeave
	}

	affected, err := s.groupRepo.RemoveMember(groupID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotMember
	}
	return nil
}

// RemoveMember 管理员移除成员：member -> none
func (s *MembershipService) RemoveMember(actorID, groupID, memberID uint) error {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if group.OwnerID != actorID {
		return ErrNotAdmin
	}
	if memberID == group.OwnerID {
		return ErrRemoveAdmin
	}

	affected, err := s.groupRepo.RemoveMember(groupID, memberID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMemberNotFound
	}

	if s.notifier != nil {
		s.notifier.Notify(memberID, models.NotifyMemberRemoved,
			"已被移出小组",
			fmt.Sprintf("你已被移出学习小组「%s」", group.Name),
			"group", groupID)
	}
	return nil
}

// DeriveStatus 由当前成员关系推导状态，优先级 admin > member > pending > none
func DeriveStatus(ownerID, userID uint, isMember, hasPending bool) string {
	switch {
	case userID == ownerID:
		return StatusAdmin
	case isMember:
		return StatusMember
	case hasPending:
		return StatusPending
	default:
		return StatusNone
	}
}

// GetUserStatus 查询用户在小组中的当前状态
// 每次都从数据库现查，成员关系可能在页面加载和用户操作之间发生变化，
// 缓存过的状态正是 UI 按钮错乱的根源
func (s *MembershipService) GetUserStatus(userID, groupID uint) (string, error) {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return "", ErrGroupNotFound
	}

	isMember := false
	if _, err := s.groupRepo.GetMember(groupID, userID); err == nil {
		isMember = true
	}
	hasPending, err := s.groupRepo.HasPendingRequest(groupID, userID)
	if err != nil {
		return "", err
	}

	return DeriveStatus(group.OwnerID, userID, isMember, hasPending), nil
}

// GetGroupMembers 获取小组成员列表
func (s *MembershipService) GetGroupMembers(groupID uint) ([]MemberDTO, error) {
	if _, err := s.groupRepo.GetByID(groupID); err != nil {
		return nil, ErrGroupNotFound
	}
	members, err := s.groupRepo.ListMembers(groupID)
	if err != nil {
		return nil, err
	}

	dtos := make([]MemberDTO, 0, len(members))
	for _, m := range members {
		dto := MemberDTO{
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.JoinedAt.Format(time.RFC3339),
		}
		if m.User != nil {
			dto.Username = m.User.UserName
			dto.Nickname = m.User.Nickname
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// ListJoinRequests 管理员查看小组的待处理申请
func (s *MembershipService) ListJoinRequests(actorID, groupID uint) ([]JoinRequestDTO, error) {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, ErrGroupNotFound
	}
	if group.OwnerID != actorID {
		return nil, ErrNotAdmin
	}

	requests, err := s.groupRepo.ListJoinRequests(groupID)
	if err != nil {
		return nil, err
	}

	dtos := make([]JoinRequestDTO, 0, len(requests))
	for _, req := range requests {
		dto := JoinRequestDTO{
			ID:          req.ID,
			UserID:      req.UserID,
			Message:     req.Message,
			RequestedAt: req.RequestedAt.Format(time.RFC3339),
		}
		if req.User != nil {
			dto.Username = req.User.UserName
			dto.Nickname = req.User.Nickname
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// ListGroupsForUser 获取用户已加入的所有小组（含课程元数据）
func (s *MembershipService) ListGroupsForUser(userID uint) ([]GroupDTO, error) {
	groups, err := s.groupRepo.ListUserGroups(userID)
	if err != nil {
		return nil, err
	}

	dtos := make([]GroupDTO, 0, len(groups))
	for i := range groups {
		members, err := s.groupRepo.ListMembers(groups[i].ID)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *s.toGroupDTO(&groups[i], len(members)))
	}
	return dtos, nil
}

// ListPendingRequestsForUser 获取用户发出的待处理申请，供"我在等待哪些组"页面使用
func (s *MembershipService) ListPendingRequestsForUser(userID uint) ([]PendingRequestDTO, error) {
	requests, err := s.groupRepo.ListUserJoinRequests(userID)
	if err != nil {
		return nil, err
	}

	dtos := make([]PendingRequestDTO, 0, len(requests))
	for _, req := range requests {
		dto := PendingRequestDTO{
			ID:          req.ID,
			GroupID:     req.GroupID,
			RequestedAt: req.RequestedAt.Format(time.RFC3339),
		}
		if req.Group != nil {
			dto.GroupName = req.Group.Name
			if req.Group.Course != nil {
				dto.CourseCode = req.Group.Course.Code
				dto.CourseTitle = req.Group.Course.Title
			}
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}
