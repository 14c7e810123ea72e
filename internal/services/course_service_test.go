package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopher0727/StudyRoom/internal/repositories"
)

func newCourseService(t *testing.T) *CourseService {
	t.Helper()
	return NewCourseService(repositories.NewCourseRepository(newTestDB(t)))
}

func TestCreateCourse(t *testing.T) {
	svc := newCourseService(t)

	dto, err := svc.CreateCourse(&CreateCourseRequest{
		Code: "  cs101 ", Title: " 算法导论 ", Department: "CS",
	})
	require.NoError(t, err)
	assert.Equal(t, "CS101", dto.Code, "课程代码统一大写")
	assert.Equal(t, "算法导论", dto.Title)

	// 同代码不能重复创建，大小写视为相同
	_, err = svc.CreateCourse(&CreateCourseRequest{Code: "CS101", Title: "算法"})
	assert.ErrorIs(t, err, ErrCourseCodeTaken)
	_, err = svc.CreateCourse(&CreateCourseRequest{Code: "cs101", Title: "算法"})
	assert.ErrorIs(t, err, ErrCourseCodeTaken)

	_, err = svc.CreateCourse(&CreateCourseRequest{Code: "  ", Title: "算法"})
	assert.ErrorIs(t, err, ErrCourseCodeRequired)
	_, err = svc.CreateCourse(&CreateCourseRequest{Code: "CS102", Title: " "})
	assert.ErrorIs(t, err, ErrCourseTitleMissing)
}

func TestListCourses_DepartmentFilter(t *testing.T) {
	svc := newCourseService(t)
	for _, c := range []CreateCourseRequest{
		{Code: "CS101", Title: "算法导论", Department: "CS"},
		{Code: "CS201", Title: "操作系统", Department: "CS"},
		{Code: "MA101", Title: "线性代数", Department: "MATH"},
	} {
		req := c
		_, err := svc.CreateCourse(&req)
		require.NoError(t, err)
	}

	all, err := svc.ListCourses("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	cs, err := svc.ListCourses("CS")
	require.NoError(t, err)
	require.Len(t, cs, 2)
	for _, c := range cs {
		assert.Equal(t, "CS", c.Department)
	}
}

func TestGetCourse_NotFound(t *testing.T) {
	svc := newCourseService(t)
	_, err := svc.GetCourse(9999)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}
