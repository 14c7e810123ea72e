package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StudyRoom/internal/services"
)

// PlannerHandler 学习日程处理器
type PlannerHandler struct {
	plannerService *services.PlannerService
}

// NewPlannerHandler 创建学习日程处理器实例
func NewPlannerHandler(plannerService *services.PlannerService) *PlannerHandler {
	return &PlannerHandler{
		plannerService: plannerService,
	}
}

func eventIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid event id",
		})
		return 0, false
	}
	return uint(id), true
}

// CreateEvent 创建日程
func (h *PlannerHandler) CreateEvent(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	var req services.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("CreateEvent: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	event, err := h.plannerService.CreateEvent(userID, &req)
	if err != nil {
		log.Printf("CreateEvent: service error for user %d: %v", userID, err)
		fail(c, err)
		return
	}

	ok(c, event)
}

// ListEvents 查询时间范围内的日程，默认未来一周
func (h *PlannerHandler) ListEvents(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	from := time.Now()
	to := from.AddDate(0, 0, 7)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "invalid from time",
			})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "invalid to time",
			})
			return
		}
		to = t
	}

	events, err := h.plannerService.ListEvents(userID, from, to)
	if err != nil {
		log.Printf("ListEvents: service error for user %d: %v", userID, err)
		fail(c, err)
		return
	}

	ok(c, events)
}

// UpdateEvent 更新日程
func (h *PlannerHandler) UpdateEvent(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	eventID, okParam := eventIDParam(c)
	if !okParam {
		return
	}

	var req services.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("UpdateEvent: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	event, err := h.plannerService.UpdateEvent(userID, eventID, &req)
	if err != nil {
		log.Printf("UpdateEvent: service error for event %d: %v", eventID, err)
		fail(c, err)
		return
	}

	ok(c, event)
}

// DeleteEvent 删除日程
func (h *PlannerHandler) DeleteEvent(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	eventID, okParam := eventIDParam(c)
	if !okParam {
		return
	}

	if err := h.plannerService.DeleteEvent(userID, eventID); err != nil {
		log.Printf("DeleteEvent: service error for event %d: %v", eventID, err)
		fail(c, err)
		return
	}

	ok(c, nil)
}
