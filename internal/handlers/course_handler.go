package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StudyRoom/internal/services"
)

// CourseHandler 课程处理器
type CourseHandler struct {
	courseService *services.CourseService
}

// NewCourseHandler 创建课程处理器实例
func NewCourseHandler(courseService *services.CourseService) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
	}
}

// CreateCourse 创建课程
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req services.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("CreateCourse: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	course, err := h.courseService.CreateCourse(&req)
	if err != nil {
		log.Printf("CreateCourse: service error for code %s: %v", req.Code, err)
		fail(c, err)
		return
	}

	ok(c, course)
}

// GetCourse 课程详情
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid course id",
		})
		return
	}

	course, err := h.courseService.GetCourse(uint(id))
	if err != nil {
		log.Printf("GetCourse: error for course %d: %v", id, err)
		fail(c, err)
		return
	}

	ok(c, course)
}

// ListCourses 课程列表，可按院系筛选
func (h *CourseHandler) ListCourses(c *gin.Context) {
	department := c.Query("department")

	courses, err := h.courseService.ListCourses(department)
	if err != nil {
		log.Printf("ListCourses: service error: %v", err)
		fail(c, err)
		return
	}

	ok(c, courses)
}
