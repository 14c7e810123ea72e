package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Gopher0727/StudyRoom/internal/models"
	"github.com/Gopher0727/StudyRoom/internal/repositories"
	"github.com/Gopher0727/StudyRoom/internal/storage"
)

// recordedNotification 测试用通知记录
type recordedNotification struct {
	UserID     uint
	NotifyType string
	Title      string
	Body       string
	RefType    string
	RefID      uint
}

// recordingNotifier 记录所有通知调用，替代 Kafka 管线
type recordingNotifier struct {
	mu            sync.Mutex
	notifications []recordedNotification
}

func (n *recordingNotifier) Notify(userID uint, notifyType, title, body, refType string, refID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, recordedNotification{
		UserID:     userID,
		NotifyType: notifyType,
		Title:      title,
		Body:       body,
		RefType:    refType,
		RefID:      refID,
	})
}

func (n *recordingNotifier) byType(notifyType string) []recordedNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []recordedNotification
	for _, rec := range n.notifications {
		if rec.NotifyType == notifyType {
			out = append(out, rec)
		}
	}
	return out
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// 内存库只有一个实例，限制为单连接避免打开新的空库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, storage.Migrate(db))
	return db
}

type membershipEnv struct {
	db       *gorm.DB
	svc      *MembershipService
	notifier *recordingNotifier
	course   *models.Course
}

func newMembershipEnv(t *testing.T) *membershipEnv {
	t.Helper()
	db := newTestDB(t)

	course := &models.Course{Code: "CS101", Title: "算法导论", Department: "CS"}
	require.NoError(t, db.Create(course).Error)

	notifier := &recordingNotifier{}
	svc := NewMembershipService(
		repositories.NewGroupRepository(db),
		repositories.NewCourseRepository(db),
		notifier,
	)
	return &membershipEnv{db: db, svc: svc, notifier: notifier, course: course}
}

func (e *membershipEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	user := &models.User{
		UserName:     name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "x",
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *membershipEnv) createGroup(t *testing.T, ownerID uint, private bool) *GroupDTO {
	t.Helper()
	group, err := e.svc.CreateGroup(ownerID, &CreateGroupRequest{
		Name:      "每周刷题小组",
		CourseID:  e.course.ID,
		IsPrivate: private,
	})
	require.NoError(t, err)
	return group
}

func TestCreateGroup(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")

	group := env.createGroup(t, owner.ID, false)
	assert.Equal(t, owner.ID, group.OwnerID)
	assert.Equal(t, 1, group.MemberCount)
	assert.Equal(t, "CS101", group.CourseCode)

	// 创建者即管理员
	status, err := env.svc.GetUserStatus(owner.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAdmin, status)

	members, err := env.svc.GetGroupMembers(group.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.RoleAdmin, members[0].Role)
}

func TestCreateGroup_Validation(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")

	_, err := env.svc.CreateGroup(owner.ID, &CreateGroupRequest{Name: "  ", CourseID: env.course.ID})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = env.svc.CreateGroup(owner.ID, &CreateGroupRequest{Name: "x"})
	assert.ErrorIs(t, err, ErrCourseRequired)

	_, err = env.svc.CreateGroup(owner.ID, &CreateGroupRequest{Name: "x", CourseID: 9999})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestJoinPublicGroup_Direct(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	group := env.createGroup(t, owner.ID, false)

	status, err := env.svc.RequestOrJoin(bob.ID, group.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusMember, status)

	// 公开组直接入组，不得留下申请记录
	requests, err := env.svc.ListJoinRequests(owner.ID, group.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)

	got, err := env.svc.GetUserStatus(bob.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusMember, got)
}

func TestJoinPrivateGroup_ApprovalRoundTrip(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	group := env.createGroup(t, owner.ID, true)

	// none -> pending
	status, err := env.svc.RequestOrJoin(bob.ID, group.ID, "求带")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)

	got, err := env.svc.GetUserStatus(bob.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got)

	requests, err := env.svc.ListJoinRequests(owner.ID, group.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, bob.ID, requests[0].UserID)
	assert.Equal(t, "求带", requests[0].Message)

	// pending -> member
	require.NoError(t, env.svc.ApproveRequest(owner.ID, group.ID, requests[0].ID))

	got, err = env.svc.GetUserStatus(bob.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusMember, got)

	// 申请已被消费
	requests, err = env.svc.ListJoinRequests(owner.ID, group.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)

	approved := env.notifier.byType(models.NotifyRequestApproved)
	require.Len(t, approved, 1)
	assert.Equal(t, bob.ID, approved[0].UserID)
}

func TestRejectThenReRequest(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	group := env.createGroup(t, owner.ID, true)

	_, err := env.svc.RequestOrJoin(bob.ID, group.ID, "")
	require.NoError(t, err)

	requests, err := env.svc.ListJoinRequests(owner.ID, group.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)

	require.NoError(t, env.svc.RejectRequest(owner.ID, group.ID, requests[0].ID, "人满了"))

	got, err := env.svc.GetUserStatus(bob.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNone, got)

	rejected := env.notifier.byType(models.NotifyRequestRejected)
	require.Len(t, rejected, 1)
	assert.Contains(t, rejected[0].Body, "人满了")

	// 拒绝后可以重新申请
	status, err := env.svc.RequestOrJoin(bob.ID, group.ID, "再试一次")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)
}

func TestRequestOrJoin_Conflicts(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	private := env.createGroup(t, owner.ID, true)

	_, err := env.svc.RequestOrJoin(bob.ID, private.ID, "")
	require.NoError(t, err)

	// 重复申请
	_, err = env.svc.RequestOrJoin(bob.ID, private.ID, "")
	assert.ErrorIs(t, err, ErrAlreadyRequested)

	// 管理员再加入自己的组
	_, err = env.svc.RequestOrJoin(owner.ID, private.ID, "")
	assert.ErrorIs(t, err, ErrAlreadyMember)

	// 小组不存在
	_, err = env.svc.RequestOrJoin(bob.ID, 9999, "")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestCancelRequest(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	group := env.createGroup(t, owner.ID, true)

	_, err := env.svc.RequestOrJoin(bob.ID, group.ID, "")
	require.NoError(t, err)

	require.NoError(t, env.svc.CancelRequest(bob.ID, group.ID))

	got, err := env.svc.GetUserStatus(bob.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNone, got)

	// 再次撤回已不存在的申请
	assert.ErrorIs(t, env.svc.CancelRequest(bob.ID, group.ID), ErrRequestNotFound)
}

func TestApproveAfterCancel(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	group := env.createGroup(t, owner.ID, true)

	_, err := env.svc.RequestOrJoin(bob.ID, group.ID, "")
	require.NoError(t, err)

	requests, err := env.svc.ListJoinRequests(owner.ID, group.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)

	require.NoError(t, env.svc.CancelRequest(bob.ID, group.ID))

	// 撤回之后批准必须失败，且用户不能变成成员
	err = env.svc.ApproveRequest(owner.ID, group.ID, requests[0].ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	got, err := env.svc.GetUserStatus(bob.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNone, got)
}

func TestApproveRequest_Authorization(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	mallory := env.createUser(t, "mallory")
	group := env.createGroup(t, owner.ID, true)

	_, err := env.svc.RequestOrJoin(bob.ID, group.ID, "")
	require.NoError(t, err)

	requests, err := env.svc.ListJoinRequests(owner.ID, group.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)

	// 非管理员不能批准、拒绝或查看申请
	assert.ErrorIs(t, env.svc.ApproveRequest(mallory.ID, group.ID, requests[0].ID), ErrNotAdmin)
	assert.ErrorIs(t, env.svc.RejectRequest(mallory.ID, group.ID, requests[0].ID, ""), ErrNotAdmin)
	_, err = env.svc.ListJoinRequests(mallory.ID, group.ID)
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestLeaveGroup(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	group := env.createGroup(t, owner.ID, false)

	_, err := env.svc.RequestOrJoin(bob.ID, group.ID, "")
	require.NoError(t, err)

	require.NoError(t, env.svc.LeaveGroup(bob.ID, group.ID))

	got, err := env.svc.GetUserStatus(bob.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNone, got)

	// 第二次退出是状态冲突，不是静默成功
	assert.ErrorIs(t, env.svc.LeaveGroup(bob.ID, group.ID), ErrNotMember)

	// 退出后可以重新加入
	status, err := env.svc.RequestOrJoin(bob.ID, group.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusMember, status)
}

func TestLeaveGroup_AdminForbidden(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")
	group := env.createGroup(t, owner.ID, false)

	assert.ErrorIs(t, env.svc.LeaveGroup(owner.ID, group.ID), ErrAdminLeave)

	// 管理员身份不受影响
	got, err := env.svc.GetUserStatus(owner.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAdmin, got)
}

func TestRemoveMember(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	mallory := env.createUser(t, "mallory")
	group := env.createGroup(t, owner.ID, false)

	_, err := env.svc.RequestOrJoin(bob.ID, group.ID, "")
	require.NoError(t, err)

	// 非管理员不能移除成员
	assert.ErrorIs(t, env.svc.RemoveMember(mallory.ID, group.ID, bob.ID), ErrNotAdmin)

	// 不能移除管理员
	assert.ErrorIs(t, env.svc.RemoveMember(owner.ID, group.ID, owner.ID), ErrRemoveAdmin)

	require.NoError(t, env.svc.RemoveMember(owner.ID, group.ID, bob.ID))

	got, err := env.svc.GetUserStatus(bob.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNone, got)

	removed := env.notifier.byType(models.NotifyMemberRemoved)
	require.Len(t, removed, 1)
	assert.Equal(t, bob.ID, removed[0].UserID)

	// 移除不存在的成员
	assert.ErrorIs(t, env.svc.RemoveMember(owner.ID, group.ID, mallory.ID), ErrMemberNotFound)
}

func TestDeleteGroup(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	group := env.createGroup(t, owner.ID, true)

	// bob 已是成员，carol 申请中
	_, err := env.svc.RequestOrJoin(bob.ID, group.ID, "")
	require.NoError(t, err)
	requests, err := env.svc.ListJoinRequests(owner.ID, group.ID)
	require.NoError(t, err)
	require.NoError(t, env.svc.ApproveRequest(owner.ID, group.ID, requests[0].ID))
	_, err = env.svc.RequestOrJoin(carol.ID, group.ID, "")
	require.NoError(t, err)

	// 非管理员不能删除
	assert.ErrorIs(t, env.svc.DeleteGroup(bob.ID, group.ID), ErrNotAdmin)

	require.NoError(t, env.svc.DeleteGroup(owner.ID, group.ID))

	_, err = env.svc.GetGroupDetail(group.ID)
	assert.ErrorIs(t, err, ErrGroupNotFound)

	// 被解散通知只发给管理员以外的成员
	deleted := env.notifier.byType(models.NotifyGroupDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, bob.ID, deleted[0].UserID)

	// 级联清理后，carol 的待处理申请也消失
	pending, err := env.svc.ListPendingRequestsForUser(carol.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestUpdateGroupSettings(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	group := env.createGroup(t, owner.ID, true)

	_, err := env.svc.RequestOrJoin(bob.ID, group.ID, "")
	require.NoError(t, err)

	newName := "期末冲刺组"
	public := false
	updated, err := env.svc.UpdateGroupSettings(owner.ID, group.ID, &UpdateGroupRequest{
		Name:      &newName,
		IsPrivate: &public,
	})
	require.NoError(t, err)
	assert.Equal(t, "期末冲刺组", updated.Name)
	assert.False(t, updated.IsPrivate)

	// 私有改公开不会自动处理存量申请
	got, err := env.svc.GetUserStatus(bob.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got)

	// 非管理员不能改设置
	_, err = env.svc.UpdateGroupSettings(bob.ID, group.ID, &UpdateGroupRequest{Name: &newName})
	assert.ErrorIs(t, err, ErrNotAdmin)

	// 名称不能改成空
	empty := "  "
	_, err = env.svc.UpdateGroupSettings(owner.ID, group.ID, &UpdateGroupRequest{Name: &empty})
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestListGroupsForUser(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	g1 := env.createGroup(t, owner.ID, false)
	g2, err := env.svc.CreateGroup(owner.ID, &CreateGroupRequest{
		Name:     "论文精读",
		CourseID: env.course.ID,
	})
	require.NoError(t, err)

	_, err = env.svc.RequestOrJoin(bob.ID, g1.ID, "")
	require.NoError(t, err)

	ownerGroups, err := env.svc.ListGroupsForUser(owner.ID)
	require.NoError(t, err)
	require.Len(t, ownerGroups, 2)
	ids := []uint{ownerGroups[0].ID, ownerGroups[1].ID}
	assert.Contains(t, ids, g1.ID)
	assert.Contains(t, ids, g2.ID)

	bobGroups, err := env.svc.ListGroupsForUser(bob.ID)
	require.NoError(t, err)
	require.Len(t, bobGroups, 1)
	assert.Equal(t, g1.ID, bobGroups[0].ID)
	assert.Equal(t, "CS101", bobGroups[0].CourseCode)
}

func TestListPendingRequestsForUser(t *testing.T) {
	env := newMembershipEnv(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	group := env.createGroup(t, owner.ID, true)

	_, err := env.svc.RequestOrJoin(bob.ID, group.ID, "")
	require.NoError(t, err)

	pending, err := env.svc.ListPendingRequestsForUser(bob.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, group.ID, pending[0].GroupID)
	assert.Equal(t, "每周刷题小组", pending[0].GroupName)
	assert.Equal(t, "CS101", pending[0].CourseCode)
}

// 预检查通过后、插入前被并发请求抢先时，唯一索引冲突要映射为业务冲突而不是 500
func TestJoinPublicGroup_LostRaceIsConflict(t *testing.T) {
	env := newMembershipEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	group := env.createGroup(t, alice.ID, false)

	// 在成员插入执行前抢先写入同一条成员记录，模拟并发双重加入
	// 写入走回调自己的事务连接，内存库只有单连接
	var fired bool
	err := env.db.Callback().Create().Before("gorm:create").Register("test_sneak_member", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "group_members" {
			return
		}
		fired = true
		require.NoError(t, tx.Exec(
			"INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)",
			group.ID, bob.ID, models.RoleMember,
		).Error)
	})
	require.NoError(t, err)
	defer env.db.Callback().Create().Remove("test_sneak_member")

	_, err = env.svc.RequestOrJoin(bob.ID, group.ID, "")
	require.True(t, fired)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestRequestPrivateGroup_LostRaceIsConflict(t *testing.T) {
	env := newMembershipEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	group := env.createGroup(t, alice.ID, true)

	var fired bool
	err := env.db.Callback().Create().Before("gorm:create").Register("test_sneak_request", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "join_requests" {
			return
		}
		fired = true
		require.NoError(t, tx.Exec(
			"INSERT INTO join_requests (group_id, user_id, message, requested_at) VALUES (?, ?, '', CURRENT_TIMESTAMP)",
			group.ID, bob.ID,
		).Error)
	})
	require.NoError(t, err)
	defer env.db.Callback().Create().Remove("test_sneak_request")

	_, err = env.svc.RequestOrJoin(bob.ID, group.ID, "求带")
	require.True(t, fired)
	assert.ErrorIs(t, err, ErrAlreadyRequested)
}
