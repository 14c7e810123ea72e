package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Gopher0727/StudyRoom/internal/models"
	"github.com/Gopher0727/StudyRoom/internal/repositories"
)

type reportEnv struct {
	db       *gorm.DB
	svc      *ReportService
	notifier *recordingNotifier
	resource *models.Resource
	reporter *models.User
	mod      *models.User
}

func newReportEnv(t *testing.T) *reportEnv {
	t.Helper()
	db := newTestDB(t)

	course := &models.Course{Code: "CS101", Title: "算法导论", Department: "CS"}
	require.NoError(t, db.Create(course).Error)

	reporter := &models.User{UserName: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(reporter).Error)
	mod := &models.User{UserName: "mod", Email: "mod@example.com", PasswordHash: "x", Role: "moderator"}
	require.NoError(t, db.Create(mod).Error)

	resource := &models.Resource{
		Title: "辣鸡资源", FileURL: "https://x", FileKey: "k",
		CourseID: course.ID, UploaderID: reporter.ID,
	}
	require.NoError(t, db.Create(resource).Error)

	notifier := &recordingNotifier{}
	svc := NewReportService(
		repositories.NewReportRepository(db),
		repositories.NewResourceRepository(db),
		repositories.NewUserRepository(db),
		notifier,
	)
	return &reportEnv{db: db, svc: svc, notifier: notifier, resource: resource, reporter: reporter, mod: mod}
}

func TestCreateReport(t *testing.T) {
	env := newReportEnv(t)

	dto, err := env.svc.CreateReport(env.reporter.ID, &CreateReportRequest{
		TargetType: "resource", TargetID: env.resource.ID, Reason: "内容侵权",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportOpen, dto.Status)
	assert.Equal(t, env.reporter.ID, dto.ReporterID)

	_, err = env.svc.CreateReport(env.reporter.ID, &CreateReportRequest{
		TargetType: "resource", TargetID: env.resource.ID, Reason: "  ",
	})
	assert.ErrorIs(t, err, ErrReasonRequired)

	_, err = env.svc.CreateReport(env.reporter.ID, &CreateReportRequest{
		TargetType: "resource", TargetID: 9999, Reason: "不存在",
	})
	assert.ErrorIs(t, err, ErrBadTarget)

	_, err = env.svc.CreateReport(env.reporter.ID, &CreateReportRequest{
		TargetType: "group", TargetID: 1, Reason: "类型错误",
	})
	assert.ErrorIs(t, err, ErrBadTargetType)
}

func TestResolveReport(t *testing.T) {
	env := newReportEnv(t)
	dto, err := env.svc.CreateReport(env.reporter.ID, &CreateReportRequest{
		TargetType: "resource", TargetID: env.resource.ID, Reason: "内容侵权",
	})
	require.NoError(t, err)

	// 非审核员不能处理
	err = env.svc.ResolveReport(env.reporter.ID, dto.ID, models.ReportResolved, "已下架")
	assert.ErrorIs(t, err, ErrNotModerator)

	err = env.svc.ResolveReport(env.mod.ID, dto.ID, "banned", "")
	assert.ErrorIs(t, err, ErrInvalidResolution)

	require.NoError(t, env.svc.ResolveReport(env.mod.ID, dto.ID, models.ReportResolved, "已下架"))

	// 举报人收到处理结果通知
	recs := env.notifier.byType(models.NotifyReportResolved)
	require.Len(t, recs, 1)
	assert.Equal(t, env.reporter.ID, recs[0].UserID)
	assert.Contains(t, recs[0].Body, "已下架")

	// 已关闭的举报不能重复处理
	err = env.svc.ResolveReport(env.mod.ID, dto.ID, models.ReportDismissed, "")
	assert.ErrorIs(t, err, ErrReportClosed)

	err = env.svc.ResolveReport(env.mod.ID, 9999, models.ReportResolved, "")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestListReports_ModeratorOnly(t *testing.T) {
	env := newReportEnv(t)
	for _, reason := range []string{"侵权", "垃圾广告"} {
		_, err := env.svc.CreateReport(env.reporter.ID, &CreateReportRequest{
			TargetType: "resource", TargetID: env.resource.ID, Reason: reason,
		})
		require.NoError(t, err)
	}

	_, _, err := env.svc.ListReports(env.reporter.ID, models.ReportOpen, 1, 10)
	assert.ErrorIs(t, err, ErrNotModerator)

	reports, total, err := env.svc.ListReports(env.mod.ID, models.ReportOpen, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, reports, 2)
}
