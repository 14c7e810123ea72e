package repositories

import (
	"gorm.io/gorm"

	"github.com/Gopher0727/StudyRoom/internal/models"
)

// GroupRepository 学习小组仓储
type GroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository 创建学习小组仓储实例
func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create 创建小组并在同一事务内写入管理员成员记录
// 保证 "管理员必须是成员" 不落在应用层补偿逻辑上
func (r *GroupRepository) Create(group *models.StudyGroup) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		member := &models.GroupMember{
			GroupID: group.ID,
			UserID:  group.OwnerID,
			Role:    models.RoleAdmin,
		}
		return tx.Create(member).Error
	})
}

// GetByID 根据 ID 获取小组
func (r *GroupRepository) GetByID(id uint) (*models.StudyGroup, error) {
	var group models.StudyGroup
	if err := r.db.Preload("Course").First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// UpdateFields 部分更新小组设置
func (r *GroupRepository) UpdateFields(id uint, fields map[string]any) error {
	return r.db.Model(&models.StudyGroup{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除小组，级联删除待处理申请与成员记录
func (r *GroupRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&models.JoinRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.StudyGroup{}, id).Error
	})
}

// GetMember 获取某用户在小组内的成员记录
func (r *GroupRepository) GetMember(groupID, userID uint) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// AddMember 添加成员记录，(group_id, user_id) 唯一索引兜底防重
func (r *GroupRepository) AddMember(member *models.GroupMember) error {
	return r.db.Create(member).Error
}

// RemoveMember 删除成员记录，返回受影响行数
// 物理删除，用户之后可以重新加入
func (r *GroupRepository) RemoveMember(groupID, userID uint) (int64, error) {
	result := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.GroupMember{})
	return result.RowsAffected, result.Error
}

// ListMembers 获取小组成员列表
func (r *GroupRepository) ListMembers(groupID uint) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.Where("group_id = ?", groupID).Preload("User").Order("joined_at").Find(&members).Error
	return members, err
}

// ListUserGroups 获取用户已加入（含管理）的所有小组
func (r *GroupRepository) ListUserGroups(userID uint) ([]models.StudyGroup, error) {
	var groups []models.StudyGroup
	err := r.db.Joins("JOIN group_members ON study_groups.id = group_members.group_id").
		Where("group_members.user_id = ?", userID).
		Preload("Course").
		Find(&groups).Error
	return groups, err
}

// CreateJoinRequest 创建入组申请
func (r *GroupRepository) CreateJoinRequest(req *models.JoinRequest) error {
	return r.db.Create(req).Error
}

// GetJoinRequest 获取小组内指定 ID 的申请
func (r *GroupRepository) GetJoinRequest(groupID, requestID uint) (*models.JoinRequest, error) {
	var req models.JoinRequest
	if err := r.db.Where("id = ? AND group_id = ?", requestID, groupID).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// HasPendingRequest 判断用户对小组是否有待处理申请
func (r *GroupRepository) HasPendingRequest(groupID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.JoinRequest{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

// ApproveJoinRequest 批准申请：条件删除申请并写入成员记录，单事务执行
// 申请已被撤回/处理时删除影响 0 行，返回 (nil, 0, nil)，由调用方判定冲突
// 不能先读后删分两步提交，否则批准与撤回并发时会双赢
func (r *GroupRepository) ApproveJoinRequest(groupID, requestID uint) (*models.JoinRequest, int64, error) {
	var req models.JoinRequest
	var affected int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND group_id = ?", requestID, groupID).First(&req).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND group_id = ?", requestID, groupID).Delete(&models.JoinRequest{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		if affected == 0 {
			return nil
		}
		member := &models.GroupMember{
			GroupID: groupID,
			UserID:  req.UserID,
			Role:    models.RoleMember,
		}
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return &req, affected, nil
}

// RejectJoinRequest 拒绝申请：条件删除，返回申请记录与受影响行数
func (r *GroupRepository) RejectJoinRequest(groupID, requestID uint) (*models.JoinRequest, int64, error) {
	var req models.JoinRequest
	var affected int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND group_id = ?", requestID, groupID).First(&req).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND group_id = ?", requestID, groupID).Delete(&models.JoinRequest{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &req, affected, nil
}

// CancelJoinRequest 撤回自己的申请，返回受影响行数
func (r *GroupRepository) CancelJoinRequest(groupID, userID uint) (int64, error) {
	result := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.JoinRequest{})
	return result.RowsAffected, result.Error
}

// ListJoinRequests 获取小组的待处理申请（管理员视角）
func (r *GroupRepository) ListJoinRequests(groupID uint) ([]models.JoinRequest, error) {
	var requests []models.JoinRequest
	err := r.db.Where("group_id = ?", groupID).Preload("User").Order("requested_at").Find(&requests).Error
	return requests, err
}

// ListUserJoinRequests 获取用户发出的所有待处理申请（申请人视角）
func (r *GroupRepository) ListUserJoinRequests(userID uint) ([]models.JoinRequest, error) {
	var requests []models.JoinRequest
	err := r.db.Where("user_id = ?", userID).
		Preload("Group").Preload("Group.Course").
		Order("requested_at").Find(&requests).Error
	return requests, err
}
